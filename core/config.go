package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env       string // DEV (local; default), TEST, QA, PROD
		Build     string
		Debug     bool
		TestMode  bool
		AppName   string
		SecretKey string

		Server   ServerConfig
		Auth     AuthConfig
		Database DatabaseConfig
		Mail     MailConfig
		Quote    QuoteConfig

		RollbarToken string
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		CORSOrigins               []string
		BodyLimit                 string
		LoginRate                 float64 // requests per second per client
		LoginBurst                int
	}

	// AuthConfig holds the single operator credential guarding the API.
	AuthConfig struct {
		User         string
		Password     string // plaintext; hashed on startup when PasswordHash is empty
		PasswordHash string // bcrypt
	}

	DatabaseConfig struct {
		URL           string
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	MailConfig struct {
		Provider         string // console, sendgrid, resend, smtp2go
		SendgridApiKey   string
		ResendApiKey     string
		Smtp2goApiKey    string
		SenderEmail      string
		SenderName       string
		HiddenRecipients []string
	}

	QuoteConfig struct {
		UnitCost decimal.Decimal // per student
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

func (mc MailConfig) DefaultFromEmail() mail.Address {
	return mail.Address{Name: mc.SenderName, Address: mc.SenderEmail}
}

// NewConfig loads the configuration of the current ENV.
// Values come from the process environment, optionally seeded by config/.env.<env>.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	return newConfig(env, newViper(env))
}

func newViper(env string) *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// defaults
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("test_mode", env == "TEST")
	v.SetDefault("app_name", "Orçamento PD")
	v.SetDefault("jwt.secret", "x9#k2v!q7d$u@r4m8z0p-l&w3n+b6t5y(e1h)c_s=f")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":3001")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.jwt_expiration", 2*time.Hour)
	v.SetDefault("server.jwt_refresh_expiration", 8*time.Hour)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.body_limit", "50M")
	v.SetDefault("server.login_rate", 1.0)
	v.SetDefault("server.login_burst", 5)

	v.SetDefault("auth.user", "")
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.password_hash", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "orcamento")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.admin_user", "")
	v.SetDefault("database.admin_password", "")
	v.SetDefault("database.disable_tls", env == "DEV" || env == "TEST")

	v.SetDefault("mail.provider", "console")
	v.SetDefault("mail.sendgrid_api_key", "")
	v.SetDefault("mail.resend_api_key", "")
	v.SetDefault("mail.smtp2go_api_key", "")
	v.SetDefault("mail.sender_email", "orcamentos@projetodesenvolve.com.br")
	v.SetDefault("mail.sender_name", "Equipe Desenvolve")
	v.SetDefault("mail.hidden_recipients", "")

	v.SetDefault("quote.unit_cost", "31500")
	v.SetDefault("rollbar.token", "")

	// names used by the previous deployment
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("auth.user", "AUTH_USER", "VITE_AUTH_USER")
	_ = v.BindEnv("auth.password", "AUTH_PASSWORD", "VITE_AUTH_PASS")
	_ = v.BindEnv("server.address", "SERVER_ADDRESS")
	_ = v.BindEnv("mail.hidden_recipients", "MAIL_HIDDEN_RECIPIENTS", "HIDDEN_EMAILS")
	_ = v.BindEnv("mail.smtp2go_api_key", "MAIL_SMTP2GO_API_KEY", "SMTP2GO_API_KEY")
	_ = v.BindEnv("mail.sender_email", "MAIL_SENDER_EMAIL", "SMTP2GO_SENDER_EMAIL")
	_ = v.BindEnv("mail.sender_name", "MAIL_SENDER_NAME", "SMTP2GO_SENDER_NAME")

	v.AutomaticEnv()
	return v
}

func newConfig(env string, v *viper.Viper) *Config {
	unitCost, err := parseUnitCost(v.GetString("quote.unit_cost"))
	if err != nil {
		log.Fatalf("config.quote.unit_cost(%s): %v", v.GetString("quote.unit_cost"), err)
	}

	return &Config{
		Env:       env,
		Build:     v.GetString("build"),
		Debug:     v.GetBool("debug"),
		TestMode:  v.GetBool("test_mode"),
		AppName:   v.GetString("app_name"),
		SecretKey: v.GetString("jwt.secret"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			ShutdownTimeout:           v.GetDuration("server.shutdown_timeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwt_expiration"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwt_refresh_expiration"),
			CORSOrigins:               SplitList(v.GetString("server.cors_origins")),
			BodyLimit:                 v.GetString("server.body_limit"),
			LoginRate:                 v.GetFloat64("server.login_rate"),
			LoginBurst:                v.GetInt("server.login_burst"),
		},
		Auth: AuthConfig{
			User:         v.GetString("auth.user"),
			Password:     v.GetString("auth.password"),
			PasswordHash: v.GetString("auth.password_hash"),
		},
		Database: DatabaseConfig{
			URL:           v.GetString("database.url"),
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.admin_user"),
			AdminPassword: v.GetString("database.admin_password"),
			DisableTLS:    v.GetBool("database.disable_tls"),
		},
		Mail: MailConfig{
			Provider:         CleanString(v.GetString("mail.provider"), true /* lower */),
			SendgridApiKey:   v.GetString("mail.sendgrid_api_key"),
			ResendApiKey:     v.GetString("mail.resend_api_key"),
			Smtp2goApiKey:    v.GetString("mail.smtp2go_api_key"),
			SenderEmail:      v.GetString("mail.sender_email"),
			SenderName:       v.GetString("mail.sender_name"),
			HiddenRecipients: ParseEmailList(v.GetString("mail.hidden_recipients")),
		},
		Quote: QuoteConfig{
			UnitCost: unitCost,
		},
		RollbarToken: v.GetString("rollbar.token"),
	}
}

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}

func parseUnitCost(s string) (decimal.Decimal, error) {
	cost, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if !cost.IsPositive() {
		return decimal.Zero, errors.New("must be positive")
	}
	return cost, nil
}

package echoapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/projetodesenvolve/orcamento/core"
)

var (
	contextTokenKey = "userToken"

	nowFunc = time.Now // mockable
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
}

func (c Claims) person() core.Person {
	return core.Person{ID: c.Subject, Username: c.Username}
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// NewClaims returns the claims of the operator; origIat carries over the first issue time on refresh.
func NewClaims(conf *core.Config, username string, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   username,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     username,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// PreparePasswordHash hashes the plaintext operator password when no bcrypt hash is configured.
func PreparePasswordHash(conf *core.AuthConfig) error {
	if conf.PasswordHash != "" || conf.Password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(conf.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	conf.PasswordHash = string(hash)
	conf.Password = ""
	return nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

type authApi struct {
	conf *core.Config
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config) {
	api := authApi{conf: conf}
	limiter := newIPRateLimiter(conf.Server.LoginRate, conf.Server.LoginBurst)

	g.POST("/login", api.login, limiter.middleware())
	g.POST("/token-refresh", api.refreshToken, jwt)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errAuthenticationFailed
	}
	if err := api.authenticate(data.User, data.Pass); err != nil {
		return err
	}

	token, err := GenerateToken(api.conf, NewClaims(api.conf, api.conf.Auth.User))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Success: true, Token: token})
}

// authenticate checks the fixed operator credential.
func (api *authApi) authenticate(user, pass string) error {
	want := api.conf.Auth
	if want.User == "" || want.PasswordHash == "" {
		return errAuthenticationFailed
	}

	userOK := subtle.ConstantTimeCompare([]byte(core.CleanString(user)), []byte(want.User)) == 1
	pwdErr := bcrypt.CompareHashAndPassword([]byte(want.PasswordHash), []byte(pass))
	if !userOK || pwdErr != nil {
		return errAuthenticationFailed
	}
	return nil
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(api.conf.Server.JWTRefreshExpirationDelta)
	if nowFunc().After(expTime) {
		return errRefreshExpired
	}

	token, err := GenerateToken(api.conf, NewClaims(api.conf, claims.Username, claims.OrigIssuedAt))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Success: true, Token: token})
}

type (
	LoginRequest struct {
		User string `json:"user"`
		Pass string `json:"pass"`
	}

	LoginResponse struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
)

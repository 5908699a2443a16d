package emailsvc

import (
	"fmt"

	"github.com/projetodesenvolve/orcamento/core"
)

// Providers
const (
	ProviderConsole  = "console"
	ProviderSendgrid = "sendgrid"
	ProviderResend   = "resend"
	ProviderSmtp2go  = "smtp2go"
)

// ProviderError reports a delivery the provider refused.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// NewService returns the EmailService of the configured provider.
func NewService(conf *core.Config, logger core.Logger) (core.EmailService, error) {
	switch conf.Mail.Provider {
	case ProviderConsole, "":
		return NewConsoleService(conf, logger), nil
	case ProviderSendgrid:
		return NewSendgridService(conf), nil
	case ProviderResend:
		return NewResendService(conf), nil
	case ProviderSmtp2go:
		return NewSmtp2goService(conf), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", conf.Mail.Provider)
	}
}

package postmark

import (
	"errors"

	"github.com/dmitrymomot/fitqueue/core/email"
)

// Config holds Postmark credentials and sender identity.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"coach@fitqueue.app"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@fitqueue.app"`
	// BaseURL overrides the API endpoint; empty keeps the library default.
	BaseURL string `env:"POSTMARK_BASE_URL"`
}

// Enabled reports whether credentials are configured. Without them the
// application falls back to the next sender.
func (c Config) Enabled() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}

// Validate reports every missing or malformed field at once.
func (c Config) Validate() error {
	var errs []error
	if c.PostmarkServerToken == "" {
		errs = append(errs, errors.New("server token is required"))
	}
	if c.PostmarkAccountToken == "" {
		errs = append(errs, errors.New("account token is required"))
	}
	if !email.IsValidAddress(c.SenderEmail) {
		errs = append(errs, errors.New("sender email must be a valid address"))
	}
	if !email.IsValidAddress(c.SupportEmail) {
		errs = append(errs, errors.New("support email must be a valid address"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{email.ErrInvalidConfig}, errs...)...)
}

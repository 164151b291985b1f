// Package postmark implements email.EmailSender on Postmark's transactional API.
//
// # Configuration
//
//	type Config struct {
//		PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
//		PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
//		SenderEmail          string `env:"SENDER_EMAIL" envDefault:"coach@fitqueue.app"`
//		SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@fitqueue.app"`
//		BaseURL              string `env:"POSTMARK_BASE_URL"`
//	}
//
// Tokens are optional in configuration so development environments can run
// without Postmark; Config.Enabled tells the wiring code which sender to build.
// New itself rejects missing tokens.
//
// # Usage Example
//
//	var sender email.EmailSender = email.NewDevSender("./dev_emails")
//	if cfg.Postmark.Enabled() {
//		pm, err := postmark.New(cfg.Postmark)
//		if err != nil {
//			return err
//		}
//		sender = pm
//	}
//
//	id, err := sender.SendEmail(ctx, params)
//
// Every message tracks opens and HTML link clicks and sets Reply-To to the
// support address. Messages Postmark refuses (codes 300 and 406) wrap
// email.ErrInvalidParams; other failures wrap email.ErrFailedToSendEmail.
package postmark

// Package email defines the EmailSender abstraction used by the email queue,
// plus a development sender that writes emails to disk.
//
// # Usage
//
//	sender := email.NewDevSender("./dev_emails")
//
//	id, err := sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "Your weekly progress report",
//		BodyHTML: html,
//		Tag:      "progress-report",
//	})
//
// SendEmail returns the provider message id. Production deployments use the
// Postmark implementation from integration/email/postmark.
//
// # Development Mode
//
// DevSender saves every email as an HTML file plus a JSON metadata file named
// after the send time, the tag (or subject) and a short random suffix:
//
//	./dev_emails/2025_01_15_143052_welcome_1a2b3c4d.html
//	./dev_emails/2025_01_15_143052_welcome_1a2b3c4d.json
//
// # Validation
//
// SendEmailParams.Validate requires a valid recipient, a subject and a body.
// Failures wrap ErrInvalidParams; transport failures wrap ErrFailedToSendEmail.
//
// Bodies are rendered with the templates subpackage.
package email

// Package smtp implements email.EmailSender over a plain SMTP relay.
//
// It is the self-hosted alternative to the Postmark sender: the application
// uses Postmark when its tokens are set, this client when SMTP_HOST is set,
// and the on-disk development sender otherwise.
//
//	sender, err := smtp.New(smtp.Config{
//		Host:        "smtp.example.com",
//		Port:        587,
//		Username:    "apikey",
//		Password:    os.Getenv("SMTP_PASSWORD"),
//		TLSMode:     "starttls",
//		SenderEmail: "coach@fitqueue.app",
//	})
//
// TLS modes:
//   - starttls: plain connection upgraded with STARTTLS (port 587)
//   - tls: implicit TLS (port 465)
//   - plain: no encryption, for local relays such as Mailpit
//
// Credentials are optional; without a username the client skips AUTH.
package smtp

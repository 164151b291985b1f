package smtp

// Config holds SMTP relay settings. Host is optional so deployments without a
// relay can fall back to another sender; see Enabled.
type Config struct {
	Host         string `env:"SMTP_HOST"`
	Port         int    `env:"SMTP_PORT" envDefault:"587"`
	Username     string `env:"SMTP_USERNAME"`
	Password     string `env:"SMTP_PASSWORD"`
	TLSMode      string `env:"SMTP_TLS_MODE" envDefault:"starttls"` // starttls, tls or plain
	SenderEmail  string `env:"SENDER_EMAIL" envDefault:"coach@fitqueue.app"`
	SupportEmail string `env:"SUPPORT_EMAIL" envDefault:"support@fitqueue.app"`
}

// Enabled reports whether a relay host is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

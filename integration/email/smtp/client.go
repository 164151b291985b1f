package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fitqueue/core/email"
)

const dialTimeout = 10 * time.Second

// Client sends email through an SMTP relay. Safe for concurrent use; every
// message opens its own connection.
type Client struct {
	config Config
	auth   smtp.Auth
}

// New creates an SMTP-backed email sender.
func New(cfg Config) (email.EmailSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: SMTP host is required", email.ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: SMTP port must be between 1 and 65535", email.ErrInvalidConfig)
	}
	switch cfg.TLSMode {
	case "starttls", "tls", "plain":
	default:
		return nil, fmt.Errorf("%w: SMTP TLS mode must be starttls, tls or plain", email.ErrInvalidConfig)
	}
	if !email.IsValidAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: sender email must be a valid address", email.ErrInvalidConfig)
	}
	if cfg.SupportEmail != "" && !email.IsValidAddress(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: support email must be a valid address", email.ErrInvalidConfig)
	}

	c := &Client{config: cfg}
	if cfg.Username != "" {
		c.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return c, nil
}

// SendEmail delivers params and returns the generated Message-ID.
// The context bounds connection setup and the whole SMTP exchange.
func (c *Client) SendEmail(ctx context.Context, params email.SendEmailParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Join(email.ErrFailedToSendEmail, err)
	}
	if err := params.Validate(); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("%s@%s", uuid.NewString(), c.config.Host)
	msg := c.buildMessage(params, messageID)

	if err := c.send(ctx, params.SendTo, msg); err != nil {
		return "", errors.Join(email.ErrFailedToSendEmail, err)
	}
	return messageID, nil
}

func (c *Client) buildMessage(params email.SendEmailParams, messageID string) []byte {
	headers := [][2]string{
		{"From", c.config.SenderEmail},
		{"To", params.SendTo},
		{"Subject", params.Subject},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"Message-ID", "<" + messageID + ">"},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="UTF-8"`},
	}
	if c.config.SupportEmail != "" {
		headers = append(headers, [2]string{"Reply-To", c.config.SupportEmail})
	}
	if params.Tag != "" {
		headers = append(headers, [2]string{"X-Tag", params.Tag})
	}

	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h[0])
		b.WriteString(": ")
		b.WriteString(h[1])
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(params.BodyHTML)
	return []byte(b.String())
}

func (c *Client) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
	tlsConfig := &tls.Config{ServerName: c.config.Host}

	dialer := &net.Dialer{Timeout: dialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if c.config.TLSMode == "tls" {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	client, err := smtp.NewClient(conn, c.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if c.config.TLSMode == "starttls" {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if c.auth != nil {
		if err := client.Auth(c.auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}
	if err := client.Mail(c.config.SenderEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}

	// Some relays drop the connection right after DATA; the message is accepted by then.
	_ = client.Quit()
	return nil
}

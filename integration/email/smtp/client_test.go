package smtp_test

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/core/email"
	"github.com/dmitrymomot/fitqueue/integration/email/smtp"
)

// fakeRelay accepts one SMTP session per connection and records what it received.
type fakeRelay struct {
	ln   net.Listener
	mu   sync.Mutex
	from string
	rcpt string
	data string
}

func startRelay(t *testing.T) *fakeRelay {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	r := &fakeRelay{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go r.serve(conn)
		}
	}()
	return r
}

func (r *fakeRelay) port() int {
	return r.ln.Addr().(*net.TCPAddr).Port
}

func (r *fakeRelay) serve(conn net.Conn) {
	defer conn.Close()
	rd := bufio.NewReader(conn)
	reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

	reply("220 localhost ready")
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			r.mu.Lock()
			r.from = line[len("MAIL FROM:"):]
			r.mu.Unlock()
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			r.mu.Lock()
			r.rcpt = line[len("RCPT TO:"):]
			r.mu.Unlock()
			reply("250 OK")
		case cmd == "DATA":
			reply("354 go ahead")
			var b strings.Builder
			for {
				l, err := rd.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			r.mu.Lock()
			r.data = b.String()
			r.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func (r *fakeRelay) received() (from, rcpt, data string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.from, r.rcpt, r.data
}

func validConfig() smtp.Config {
	return smtp.Config{
		Host:         "localhost",
		Port:         2525,
		TLSMode:      "plain",
		SenderEmail:  "coach@fitqueue.app",
		SupportEmail: "support@fitqueue.app",
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*smtp.Config)
	}{
		{name: "missing host", mutate: func(c *smtp.Config) { c.Host = "" }},
		{name: "port out of range", mutate: func(c *smtp.Config) { c.Port = 70000 }},
		{name: "unknown tls mode", mutate: func(c *smtp.Config) { c.TLSMode = "ssl" }},
		{name: "invalid sender", mutate: func(c *smtp.Config) { c.SenderEmail = "coach" }},
		{name: "invalid support", mutate: func(c *smtp.Config) { c.SupportEmail = "help@" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)
			_, err := smtp.New(cfg)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
		})
	}

	_, err := smtp.New(validConfig())
	assert.NoError(t, err)
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	assert.False(t, smtp.Config{}.Enabled())
	assert.True(t, validConfig().Enabled())
}

func TestClient_SendEmail(t *testing.T) {
	t.Parallel()

	relay := startRelay(t)
	cfg := validConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = relay.port()

	sender, err := smtp.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   "ann@example.com",
		Subject:  "Welcome to FitQueue!",
		BodyHTML: "<h1>Welcome, Ann!</h1>",
		Tag:      "welcome",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, "@127.0.0.1"), id)

	from, rcpt, data := relay.received()
	assert.Equal(t, "<coach@fitqueue.app>", from)
	assert.Equal(t, "<ann@example.com>", rcpt)
	assert.Contains(t, data, "Subject: Welcome to FitQueue!\r\n")
	assert.Contains(t, data, "Message-ID: <"+id+">\r\n")
	assert.Contains(t, data, "Reply-To: support@fitqueue.app\r\n")
	assert.Contains(t, data, "X-Tag: welcome\r\n")
	assert.Contains(t, data, "<h1>Welcome, Ann!</h1>")
}

func TestClient_SendEmail_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid params", func(t *testing.T) {
		t.Parallel()

		sender, err := smtp.New(validConfig())
		require.NoError(t, err)
		_, err = sender.SendEmail(context.Background(), email.SendEmailParams{SendTo: "nobody"})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		sender, err := smtp.New(validConfig())
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = sender.SendEmail(ctx, email.SendEmailParams{SendTo: "a@example.com", Subject: "s", BodyHTML: "b"})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := ln.Addr().(*net.TCPAddr).Port
		require.NoError(t, ln.Close())

		cfg := validConfig()
		cfg.Host = "127.0.0.1"
		cfg.Port = port
		sender, err := smtp.New(cfg)
		require.NoError(t, err)

		_, err = sender.SendEmail(context.Background(), email.SendEmailParams{SendTo: "a@example.com", Subject: "s", BodyHTML: "b"})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.Contains(t, err.Error(), "127.0.0.1:"+strconv.Itoa(port))
	})
}

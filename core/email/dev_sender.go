package email

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// DevSender writes emails to a directory instead of delivering them.
// Each send produces <id>.html with the body and <id>.json with the envelope.
type DevSender struct {
	dir string
	now func() time.Time
}

// NewDevSender returns a sender that writes into dir, creating it on first use.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now}
}

type devEnvelope struct {
	MessageID string    `json:"message_id"`
	SendTo    string    `json:"send_to"`
	Subject   string    `json:"subject"`
	Tag       string    `json:"tag,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// SendEmail returns the file stem as the message id.
func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", errors.Join(ErrFailedToSendEmail, err)
	}

	label := params.Tag
	if label == "" {
		label = params.Subject
	}
	sentAt := d.now()
	id := strings.Join([]string{
		sentAt.Format("20060102-150405"),
		fileLabel(label),
		uuid.NewString()[:8],
	}, "_")

	env, err := json.MarshalIndent(devEnvelope{
		MessageID: id,
		SendTo:    params.SendTo,
		Subject:   params.Subject,
		Tag:       params.Tag,
		SentAt:    sentAt.UTC(),
	}, "", "  ")
	if err != nil {
		return "", errors.Join(ErrFailedToSendEmail, err)
	}

	files := map[string][]byte{
		id + ".html": []byte(params.BodyHTML),
		id + ".json": env,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(d.dir, name), data, 0o644); err != nil {
			return "", errors.Join(ErrFailedToSendEmail, err)
		}
	}
	return id, nil
}

// fileLabel lowercases s and keeps letters, digits and dashes, capped at 48 runes.
func fileLabel(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 48 {
			break
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "email"
	}
	return out
}

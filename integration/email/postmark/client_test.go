package postmark_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/core/email"
	"github.com/dmitrymomot/fitqueue/integration/email/postmark"
)

func validConfig() postmark.Config {
	return postmark.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "coach@fitqueue.app",
		SupportEmail:         "support@fitqueue.app",
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *postmark.Config)
	}{
		{"missing server token", func(c *postmark.Config) { c.PostmarkServerToken = "" }},
		{"missing account token", func(c *postmark.Config) { c.PostmarkAccountToken = "" }},
		{"invalid sender", func(c *postmark.Config) { c.SenderEmail = "coach" }},
		{"invalid support", func(c *postmark.Config) { c.SupportEmail = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			_, err := postmark.New(cfg)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
		})
	}

	assert.True(t, validConfig().Enabled())
	assert.False(t, postmark.Config{}.Enabled())
}

func TestClient_SendEmail(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "server", r.Header.Get("X-Postmark-Server-Token"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"To":"user@example.com","MessageID":"msg-123","ErrorCode":0,"Message":"OK"}`))
	}))
	t.Cleanup(srv.Close)

	cfg := validConfig()
	cfg.BaseURL = srv.URL
	sender, err := postmark.New(cfg)
	require.NoError(t, err)

	id, err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Workout reminder",
		BodyHTML: "<p>Time to train</p>",
		Tag:      "workout-reminder",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)
	assert.Equal(t, "Workout reminder", got["Subject"])
	assert.Equal(t, "support@fitqueue.app", got["ReplyTo"])
}

func TestClient_SendEmail_APIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		notWant error
	}{
		{"rejected message", http.StatusOK, `{"ErrorCode":406,"Message":"Inactive recipient"}`, email.ErrInvalidParams, email.ErrFailedToSendEmail},
		{"invalid request", http.StatusOK, `{"ErrorCode":300,"Message":"Invalid email request"}`, email.ErrInvalidParams, email.ErrFailedToSendEmail},
		{"rejected with 422", http.StatusUnprocessableEntity, `{"ErrorCode":406,"Message":"Inactive recipient"}`, email.ErrInvalidParams, email.ErrFailedToSendEmail},
		{"account problem", http.StatusOK, `{"ErrorCode":412,"Message":"Account pending approval"}`, email.ErrFailedToSendEmail, email.ErrInvalidParams},
		{"account problem with 422", http.StatusUnprocessableEntity, `{"ErrorCode":412,"Message":"Account pending approval"}`, email.ErrFailedToSendEmail, email.ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			cfg := validConfig()
			cfg.BaseURL = srv.URL
			sender, err := postmark.New(cfg)
			require.NoError(t, err)

			_, err = sender.SendEmail(context.Background(), email.SendEmailParams{
				SendTo: "user@example.com", Subject: "x", BodyHTML: "x",
			})
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, tt.notWant)
		})
	}
}

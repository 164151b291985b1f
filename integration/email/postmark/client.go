package postmark

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/fitqueue/core/email"
)

// Postmark API error codes that reject the message itself rather than the request.
// See https://postmarkapp.com/developer/api/overview#error-codes.
var rejectedCodes = []int64{
	300, // invalid email request
	406, // inactive recipient
}

// Client sends transactional email through the Postmark API.
type Client struct {
	api *postmark.Client
	cfg Config
}

// New validates cfg and returns a Postmark sender.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	api := postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	if cfg.BaseURL != "" {
		api.BaseURL = cfg.BaseURL
	}
	return &Client{api: api, cfg: cfg}, nil
}

// SendEmail delivers params and returns the Postmark message id.
// Messages the API refuses are reported with email.ErrInvalidParams so callers
// do not retry them; everything else is email.ErrFailedToSendEmail.
func (c *Client) SendEmail(ctx context.Context, params email.SendEmailParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	resp, err := c.api.SendEmail(ctx, postmark.Email{
		From:       c.cfg.SenderEmail,
		ReplyTo:    c.cfg.SupportEmail,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		HTMLBody:   params.BodyHTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	code, message := resp.ErrorCode, resp.Message
	var apiErr postmark.APIError
	if errors.As(err, &apiErr) {
		code, message = apiErr.ErrorCode, apiErr.Message
	}
	// The API client reports a non-zero ErrorCode as an error too, so the code
	// is inspected first.
	switch {
	case slices.Contains(rejectedCodes, code):
		return "", fmt.Errorf("%w: postmark rejected message (%d): %s", email.ErrInvalidParams, code, message)
	case err != nil:
		return "", errors.Join(email.ErrFailedToSendEmail, err)
	case code != 0:
		return "", fmt.Errorf("%w: postmark error %d: %s", email.ErrFailedToSendEmail, code, message)
	}
	return resp.MessageID, nil
}

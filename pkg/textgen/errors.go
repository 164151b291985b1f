package textgen

import "errors"

var (
	// ErrInvalidAPIKey indicates an invalid or missing API key.
	ErrInvalidAPIKey = errors.New("invalid or missing API key")

	// ErrUnknownProvider indicates the configured provider is not supported.
	ErrUnknownProvider = errors.New("unknown text generation provider")

	// ErrEmptyRequest indicates a request without messages.
	ErrEmptyRequest = errors.New("request has no messages")

	// ErrGenerationFailed indicates the provider call failed.
	ErrGenerationFailed = errors.New("failed to generate completion")

	// ErrNoCompletionReturned indicates the provider returned no choices.
	ErrNoCompletionReturned = errors.New("no completion returned")

	// ErrClientCreationFailed indicates a failure in creating the API client.
	ErrClientCreationFailed = errors.New("failed to create API client")
)

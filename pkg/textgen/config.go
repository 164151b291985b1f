package textgen

import (
	"context"
	"fmt"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// Config selects and configures the text generation provider.
type Config struct {
	Provider     string `env:"AI_PROVIDER" envDefault:"openai"`
	Model        string `env:"AI_MODEL"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIURL    string `env:"OPENAI_BASE_URL"`
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
}

// NewFromConfig builds the configured Generator.
func NewFromConfig(ctx context.Context, cfg Config) (Generator, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg.OpenAIAPIKey, WithOpenAIModel(cfg.Model), WithOpenAIBaseURL(cfg.OpenAIURL))
	case ProviderGoogle:
		return NewGoogle(ctx, cfg.GoogleAPIKey, WithGoogleModel(cfg.Model))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

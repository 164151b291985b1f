package textgen

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes a single completion call.
// Zero sampling parameters are left to the provider defaults.
type Request struct {
	Model            string
	Messages         []Message
	MaxTokens        int
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64
}

// Completion is the generated text plus the total token usage reported by the provider.
type Completion struct {
	Text       string
	TokensUsed int
}

// Generator produces chat completions.
type Generator interface {
	Generate(ctx context.Context, req Request) (Completion, error)
}

// GeneratorFunc adapts a function into a Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Completion, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Completion, error) {
	return f(ctx, req)
}

func validate(req Request) error {
	if len(req.Messages) == 0 {
		return ErrEmptyRequest
	}
	return nil
}

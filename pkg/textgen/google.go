package textgen

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GoogleDefaultModel is used when neither the request nor the client sets a model.
const GoogleDefaultModel = "gemini-2.0-flash"

// Google implements Generator using the Gemini API or Vertex AI.
type Google struct {
	client *genai.Client
	model  string
}

// GoogleOption is a functional option for configuring Google.
type GoogleOption func(*googleOptions)

type googleOptions struct {
	model    string
	backend  genai.Backend
	project  string
	location string
	baseURL  string
}

// WithGoogleModel sets the default model.
func WithGoogleModel(model string) GoogleOption {
	return func(o *googleOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithGoogleBackend sets the backend to use (Gemini API or Vertex AI).
func WithGoogleBackend(backend genai.Backend) GoogleOption {
	return func(o *googleOptions) {
		o.backend = backend
	}
}

// WithGoogleProject sets the GCP project ID for Vertex AI.
func WithGoogleProject(project string) GoogleOption {
	return func(o *googleOptions) {
		o.project = project
	}
}

// WithGoogleLocation sets the GCP location/region for Vertex AI.
func WithGoogleLocation(location string) GoogleOption {
	return func(o *googleOptions) {
		o.location = location
	}
}

// WithGoogleBaseURL overrides the API endpoint.
func WithGoogleBaseURL(url string) GoogleOption {
	return func(o *googleOptions) {
		o.baseURL = url
	}
}

// NewGoogle creates a Gemini generator with API key authentication.
func NewGoogle(ctx context.Context, apiKey string, opts ...GoogleOption) (*Google, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	options := googleOptions{model: GoogleDefaultModel, backend: genai.BackendGeminiAPI}
	for _, opt := range opts {
		opt(&options)
	}

	cfg := &genai.ClientConfig{
		APIKey:   apiKey,
		Backend:  options.backend,
		Project:  options.project,
		Location: options.location,
	}
	if options.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: options.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Join(ErrClientCreationFailed, err)
	}

	return &Google{client: client, model: options.model}, nil
}

// NewGoogleVertexAI creates a generator using Vertex AI with project and location.
func NewGoogleVertexAI(ctx context.Context, project, location string, opts ...GoogleOption) (*Google, error) {
	if project == "" || location == "" {
		return nil, fmt.Errorf("%w: project and location are required for Vertex AI backend", ErrClientCreationFailed)
	}

	options := googleOptions{model: GoogleDefaultModel}
	for _, opt := range opts {
		opt(&options)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	})
	if err != nil {
		return nil, errors.Join(ErrClientCreationFailed, err)
	}

	return &Google{client: client, model: options.model}, nil
}

// Generate sends the conversation to GenerateContent. System messages become the system instruction.
func (g *Google) Generate(ctx context.Context, req Request) (Completion, error) {
	if err := validate(req); err != nil {
		return Completion{}, err
	}

	model := req.Model
	if model == "" {
		model = g.model
	}

	config := &genai.GenerateContentConfig{}
	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, genai.NewPartFromText(m.Content))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: system}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.PresencePenalty != 0 {
		config.PresencePenalty = genai.Ptr(float32(req.PresencePenalty))
	}
	if req.FrequencyPenalty != 0 {
		config.FrequencyPenalty = genai.Ptr(float32(req.FrequencyPenalty))
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return Completion{}, errors.Join(ErrGenerationFailed, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return Completion{}, ErrNoCompletionReturned
	}

	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return Completion{Text: resp.Text(), TokensUsed: tokens}, nil
}

// Package textgen provides a provider-neutral chat completion interface.
//
// Two implementations are available: OpenAI (Chat Completions via openai-go) and
// Google (Gemini or Vertex AI via genai). Both accept the same Request and report
// total token usage in the Completion.
//
//	gen, err := textgen.NewOpenAI(apiKey)
//	if err != nil {
//		return err
//	}
//
//	out, err := gen.Generate(ctx, textgen.Request{
//		Messages: []textgen.Message{
//			{Role: textgen.RoleSystem, Content: "You are a fitness coach."},
//			{Role: textgen.RoleUser, Content: "Plan a 30 minute workout."},
//		},
//		MaxTokens:   1500,
//		Temperature: 0.7,
//	})
//
// NewFromConfig picks the provider from AI_PROVIDER ("openai" or "google").
// GeneratorFunc adapts a plain function, which is handy in tests.
//
// Provider errors are joined with ErrGenerationFailed. The clients do not retry;
// callers running inside a job queue rely on the queue's retry policy.
package textgen

package planner

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

// Sampling parameters per generation kind.
const (
	planTemperature = 0.7
	planMaxTokens   = 1500
	planPenalty     = 0.1

	chatTemperature = 0.7
	chatMaxTokens   = 500

	analysisTemperature = 0.5
	analysisMaxTokens   = 800
)

const coachSystemPrompt = "You are FitCoach, a certified personal trainer and nutritionist. " +
	"Give safe, practical and encouraging advice. Keep answers concise."

// title builds its own Caser: a Caser keeps state and cannot be shared between goroutines.
func title(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func planRequest(model, system, prompt string) textgen.Request {
	return textgen.Request{
		Model: model,
		Messages: []textgen.Message{
			{Role: textgen.RoleSystem, Content: system},
			{Role: textgen.RoleUser, Content: prompt},
		},
		MaxTokens:        planMaxTokens,
		Temperature:      planTemperature,
		PresencePenalty:  planPenalty,
		FrequencyPenalty: planPenalty,
	}
}

// extractJSON returns the outermost JSON object in text, tolerating markdown fences
// and prose around it. ok is false when no object is present.
func extractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

package planner

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/fitqueue/internal/analytics"
	"github.com/dmitrymomot/fitqueue/internal/repository"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

// MaxChatHistory is the number of previous turns sent with a chat message.
const MaxChatHistory = 10

// ChatRequest builds the request answering message in the context of history.
// Only the last MaxChatHistory turns of history are kept; system turns in history are dropped.
func ChatRequest(model string, history []textgen.Message, message string) textgen.Request {
	if len(history) > MaxChatHistory {
		history = history[len(history)-MaxChatHistory:]
	}

	msgs := make([]textgen.Message, 0, len(history)+2)
	msgs = append(msgs, textgen.Message{Role: textgen.RoleSystem, Content: coachSystemPrompt})
	for _, m := range history {
		if m.Role == textgen.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		msgs = append(msgs, m)
	}
	msgs = append(msgs, textgen.Message{Role: textgen.RoleUser, Content: message})

	return textgen.Request{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	}
}

// ProgressRequest asks for an analysis of the user's recent measurements and activity.
func ProgressRequest(model string, logs []repository.ProgressLog, snap analytics.Snapshot) textgen.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze my %s fitness progress.\n", snap.Timeframe)
	fmt.Fprintf(&b, "Workouts completed: %d, total %d minutes, %d kcal burned.\n",
		snap.Workouts.Total, snap.Workouts.TotalDuration, snap.Workouts.TotalCalories)

	if len(logs) == 0 {
		b.WriteString("No body measurements were logged.\n")
	} else {
		b.WriteString("Measurements (oldest first):\n")
		for _, l := range logs {
			fmt.Fprintf(&b, "- %s:", l.LoggedAt.Format("2006-01-02"))
			if l.Weight != nil {
				fmt.Fprintf(&b, " weight %.1f kg", *l.Weight)
			}
			if l.BodyFat != nil {
				fmt.Fprintf(&b, " body fat %.1f%%", *l.BodyFat)
			}
			b.WriteByte('\n')
		}
	}
	b.WriteString("Summarize the trend in two or three sentences and suggest one focus for next week.")

	return textgen.Request{
		Model: model,
		Messages: []textgen.Message{
			{Role: textgen.RoleSystem, Content: coachSystemPrompt},
			{Role: textgen.RoleUser, Content: b.String()},
		},
		MaxTokens:   analysisMaxTokens,
		Temperature: analysisTemperature,
	}
}

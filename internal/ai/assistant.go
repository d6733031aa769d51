package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

const systemPrompt = "You are Real Society AI, a highly intelligent personal assistant. " +
	"You learn from the user's provided context to give personalized advice. " +
	"You proactively suggest actions, write notes, and summarize data. " +
	"If the user seems stuck, ask a smart clarifying question. " +
	"Be professional yet approachable."

// User-facing fallbacks; upstream failures are never surfaced as hard errors.
const (
	chatFallback    = "I'm sorry, I'm having trouble connecting right now."
	noteFallback    = "Failed to generate note."
	summaryFallback = "Summary generation failed."
)

// SpeechSampleRate is the sample rate of synthesized audio (PCM16 LE).
const SpeechSampleRate = 24000

// Suggestion is one structured assistant suggestion.
type Suggestion struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Action string `json:"action,omitempty"`
}

// Speech carries synthesized audio samples.
type Speech struct {
	Audio      []byte `json:"audio"`
	SampleRate int    `json:"sampleRate"`
}

var suggestionSchema = Schema{
	"type": "ARRAY",
	"items": Schema{
		"type": "OBJECT",
		"properties": Schema{
			"type":   Schema{"type": "STRING", "description": "Type of suggestion: 'question' or 'action'"},
			"text":   Schema{"type": "STRING", "description": "The suggestion text"},
			"action": Schema{"type": "STRING", "description": "The specific command to run if it's an action"},
		},
		"required": []string{"type", "text"},
	},
}

// Assistant is the stateless gateway in front of a generative-model provider.
// Every call is an independent round trip; failures degrade to fixed fallback
// values instead of propagating.
type Assistant struct {
	provider Provider
}

// NewAssistant wraps a provider.
func NewAssistant(provider Provider) *Assistant {
	return &Assistant{provider: provider}
}

// Chat forwards a prompt with conversation history and free-text activity
// context, returning the reply or an apology on failure.
func (a *Assistant) Chat(ctx context.Context, prompt string, history []Turn, activityContext string) string {
	turns := make([]Turn, 0, len(history)+1)
	for _, h := range history {
		role := "user"
		if h.Role == "model" || h.Role == "assistant" || h.Role == "ai" {
			role = "model"
		}
		turns = append(turns, Turn{Role: role, Text: h.Text})
	}
	turns = append(turns, Turn{
		Role: "user",
		Text: fmt.Sprintf("Context of my recent activity: %s\n\nMy question: %s", activityContext, prompt),
	})
	reply, err := a.provider.GenerateText(ctx, systemPrompt, turns)
	if err != nil {
		slog.Warn("ai chat failed", "err", err)
		return chatFallback
	}
	return reply
}

// GenerateNote asks the model to draft a note about the prompt.
func (a *Assistant) GenerateNote(ctx context.Context, prompt string) string {
	reply, err := a.provider.GenerateText(ctx, "", []Turn{{
		Role: "user",
		Text: "Write a detailed, well-formatted note about: " + prompt,
	}})
	if err != nil {
		slog.Warn("ai note generation failed", "err", err)
		return noteFallback
	}
	return reply
}

// Summarize asks the model for a summary of the content.
func (a *Assistant) Summarize(ctx context.Context, content string) string {
	reply, err := a.provider.GenerateText(ctx, "", []Turn{{
		Role: "user",
		Text: "Provide a concise summary and key takeaways for the following content: " + content,
	}})
	if err != nil {
		slog.Warn("ai summary failed", "err", err)
		return summaryFallback
	}
	return reply
}

// Suggestions requests a structured list of next steps from the user's
// activity history. Failures return an empty list.
func (a *Assistant) Suggestions(ctx context.Context, userActivity string) []Suggestion {
	prompt := "Based on this user activity history, suggest 3 specific, actionable next steps " +
		"or smart questions to ask the user: " + userActivity
	raw, err := a.provider.GenerateJSON(ctx, prompt, suggestionSchema)
	if err != nil {
		slog.Warn("ai suggestions failed", "err", err)
		return []Suggestion{}
	}
	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &suggestions); err != nil {
		slog.Warn("ai suggestions unparseable", "err", err)
		return []Suggestion{}
	}
	return suggestions
}

// Speak synthesizes speech for the text. Failures return empty audio.
func (a *Assistant) Speak(ctx context.Context, text string) Speech {
	audio, err := a.provider.Synthesize(ctx, text)
	if err != nil {
		slog.Warn("ai speech synthesis failed", "err", err)
		return Speech{SampleRate: SpeechSampleRate}
	}
	return Speech{Audio: audio, SampleRate: SpeechSampleRate}
}

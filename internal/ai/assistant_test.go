package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestChatBuildsContextTurn(t *testing.T) {
	mock := &MockProvider{}
	assistant := NewAssistant(mock)

	reply := assistant.Chat(context.Background(), "what next?", []Turn{
		{Role: "user", Text: "hi"},
		{Role: "ai", Text: "hello"},
	}, "created 3 notes")
	if !strings.Contains(reply, "Context of my recent activity: created 3 notes") {
		t.Fatalf("expected context in final turn, got %q", reply)
	}
	if !strings.Contains(reply, "My question: what next?") {
		t.Fatalf("expected question in final turn, got %q", reply)
	}
}

func TestChatFallsBackOnProviderError(t *testing.T) {
	assistant := NewAssistant(&MockProvider{Err: errors.New("boom")})
	reply := assistant.Chat(context.Background(), "hello", nil, "")
	if reply != chatFallback {
		t.Fatalf("expected apology fallback, got %q", reply)
	}
}

func TestGenerateNoteAndSummarizeFallbacks(t *testing.T) {
	assistant := NewAssistant(&MockProvider{Err: errors.New("down")})
	if got := assistant.GenerateNote(context.Background(), "topic"); got != noteFallback {
		t.Fatalf("note fallback mismatch: %q", got)
	}
	if got := assistant.Summarize(context.Background(), "content"); got != summaryFallback {
		t.Fatalf("summary fallback mismatch: %q", got)
	}
}

func TestSuggestionsParsesStructuredReply(t *testing.T) {
	assistant := NewAssistant(&MockProvider{
		JSONReply: `[{"type":"action","text":"Review your todo list","action":"open notes"},{"type":"question","text":"Stuck on anything?"}]`,
	})
	suggestions := assistant.Suggestions(context.Background(), "wrote two notes")
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
	if suggestions[0].Type != "action" || suggestions[0].Action != "open notes" {
		t.Fatalf("unexpected first suggestion: %+v", suggestions[0])
	}
}

func TestSuggestionsEmptyOnFailure(t *testing.T) {
	for _, mock := range []*MockProvider{
		{Err: errors.New("apierror")},
		{JSONReply: "this is not json"},
	} {
		suggestions := NewAssistant(mock).Suggestions(context.Background(), "history")
		if suggestions == nil || len(suggestions) != 0 {
			t.Fatalf("expected empty non-nil list, got %v", suggestions)
		}
	}
}

func TestSpeakReturnsSamplesOrSilence(t *testing.T) {
	speech := NewAssistant(&MockProvider{Audio: []byte{1, 2, 3, 4}}).Speak(context.Background(), "hi")
	if speech.SampleRate != SpeechSampleRate || len(speech.Audio) != 4 {
		t.Fatalf("unexpected speech: %+v", speech)
	}
	degraded := NewAssistant(&MockProvider{Err: errors.New("tts down")}).Speak(context.Background(), "hi")
	if len(degraded.Audio) != 0 || degraded.SampleRate != SpeechSampleRate {
		t.Fatalf("expected silent fallback, got %+v", degraded)
	}
}

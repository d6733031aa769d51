package ai

import "context"

// MockProvider stands in when no API credential is configured, and doubles as
// the test fake. Zero-value fields fall back to canned replies.
type MockProvider struct {
	TextReply string
	JSONReply string
	Audio     []byte
	Err       error
}

func (m *MockProvider) GenerateText(_ context.Context, _ string, turns []Turn) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.TextReply != "" {
		return m.TextReply, nil
	}
	last := ""
	if len(turns) > 0 {
		last = turns[len(turns)-1].Text
	}
	return "[mock assistant] I received: " + last, nil
}

func (m *MockProvider) GenerateJSON(_ context.Context, _ string, _ Schema) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.JSONReply != "" {
		return m.JSONReply, nil
	}
	return `[{"type":"question","text":"What would you like to work on today?"}]`, nil
}

func (m *MockProvider) Synthesize(_ context.Context, _ string) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Audio, nil
}

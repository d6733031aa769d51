package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTextModel     = "gemini-3-flash-preview"
	defaultTTSModel      = "gemini-2.5-flash-preview-tts"
	defaultTTSVoice      = "Charon"
)

// GeminiClient calls the Google AI Studio (Gemini) API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	textModel  string
	ttsModel   string
	voice      string
	httpClient *http.Client
}

// NewGeminiClient constructs a client with the provided API key. Empty model
// names fall back to the defaults.
func NewGeminiClient(apiKey, textModel, ttsModel string) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	if strings.TrimSpace(textModel) == "" {
		textModel = defaultTextModel
	}
	if strings.TrimSpace(ttsModel) == "" {
		ttsModel = defaultTTSModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    defaultGeminiBaseURL,
		textModel:  normalizeModel(textModel),
		ttsModel:   normalizeModel(ttsModel),
		voice:      defaultTTSVoice,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// GenerateText returns the model reply for a multi-turn conversation.
func (c *GeminiClient) GenerateText(ctx context.Context, systemPrompt string, turns []Turn) (string, error) {
	reqBody := generateRequest{Contents: contentsFromTurns(turns)}
	if strings.TrimSpace(systemPrompt) != "" {
		reqBody.SystemInstruction = &content{
			Parts: []part{{Text: systemPrompt}},
		}
	}
	var resp generateResponse
	if err := c.doJSON(ctx, c.modelURL(c.textModel), reqBody, &resp); err != nil {
		return "", err
	}
	text := resp.firstText()
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}

// GenerateJSON requests a schema-constrained JSON response for a prompt.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, schema Schema) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	}
	var resp generateResponse
	if err := c.doJSON(ctx, c.modelURL(c.textModel), reqBody, &resp); err != nil {
		return "", err
	}
	text := resp.firstText()
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}

// Synthesize requests raw speech audio for the text. The returned bytes are
// PCM 16-bit little-endian samples at 24 kHz.
func (c *GeminiClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: text}}},
		},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.voice},
				},
			},
		},
	}
	var resp generateResponse
	if err := c.doJSON(ctx, c.modelURL(c.ttsModel), reqBody, &resp); err != nil {
		return nil, err
	}
	encoded := resp.firstInlineData()
	if encoded == "" {
		return nil, fmt.Errorf("no audio in gemini response")
	}
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode gemini audio: %w", err)
	}
	return audio, nil
}

func (c *GeminiClient) modelURL(model string) string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
}

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	model = strings.TrimPrefix(model, "models/")
	return model
}

func contentsFromTurns(turns []Turn) []content {
	contents := make([]content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == "model" {
			role = "model"
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: turn.Text}},
		})
	}
	return contents
}

func (c *GeminiClient) doJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return fmt.Errorf("gemini api error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("gemini api error: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType   string        `json:"responseMimeType,omitempty"`
	ResponseSchema     Schema        `json:"responseSchema,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) firstText() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}

func (r generateResponse) firstInlineData() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	data := r.Candidates[0].Content.Parts[0].InlineData
	if data == nil {
		return ""
	}
	return data.Data
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

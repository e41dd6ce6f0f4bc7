package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// RelevanceResult is the fixed, tagged result every classifier response
// gets parsed into. Malformed responses become a failure variant
// carrying the raw diagnostic; validity is never inferred from
// substring matching on raw text.
type RelevanceResult struct {
	IsValid    bool   `json:"isValid"`
	Confidence int    `json:"confidence"`
	Analysis   string `json:"analysis"`
}

// Client wraps the Gemini API for proof relevance classification and
// natural-language date parsing.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, model: model, timeout: timeout}, nil
}

// VerifyRelevance asks Gemini whether the proof image relates to the
// task. Transport failures return an error (the caller retries);
// unparseable model output returns a structured invalid result with
// the raw text as diagnostic, and no error.
func (c *Client) VerifyRelevance(ctx context.Context, image []byte, mimeType, title, description, verificationDetails string) (RelevanceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(relevancePrompt(title, description, verificationDetails)),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: 500,
	})
	if err != nil {
		return RelevanceResult{}, fmt.Errorf("gemini generate content failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return RelevanceResult{}, fmt.Errorf("empty response from Gemini")
	}

	return ParseRelevanceResponse(text), nil
}

// ParseDeadline turns a natural-language deadline phrase into an
// absolute time. Returns an error when the model output is not a
// parseable ISO timestamp; the caller decides the fallback.
func (c *Client) ParseDeadline(ctx context.Context, phrase string, now time.Time) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(dateParsingPrompt(phrase, now.Format(time.RFC3339))),
		}, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: 100,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("gemini generate content failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, text, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date from Gemini: %q", text)
}

// ParseRelevanceResponse parses raw model text into a RelevanceResult.
// It tolerates markdown code fences, clamps confidence into 0..100 and
// converts anything unparseable into an invalid result carrying the
// raw text.
func ParseRelevanceResponse(text string) RelevanceResult {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var parsed struct {
		IsValid    bool            `json:"isValid"`
		Confidence json.Number     `json:"confidence"`
		Analysis   json.RawMessage `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return RelevanceResult{
			IsValid:    false,
			Confidence: 0,
			Analysis:   fmt.Sprintf("AI response parsing failed: %s. Raw response: %s", err, truncate(text, 200)),
		}
	}

	confidence := 0
	if f, err := parsed.Confidence.Float64(); err == nil {
		confidence = int(f)
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	analysis := "No analysis provided"
	if len(parsed.Analysis) > 0 {
		var s string
		if err := json.Unmarshal(parsed.Analysis, &s); err == nil && s != "" {
			analysis = s
		}
	}

	return RelevanceResult{
		IsValid:    parsed.IsValid,
		Confidence: confidence,
		Analysis:   analysis,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

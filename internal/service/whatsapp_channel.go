package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type whatsappChannel struct {
	httpClient *http.Client
	gatewayURL string
	apiKey     string
}

// NewWhatsAppChannel creates a channel that delivers text messages
// through a WhatsApp HTTP gateway. Returns a noop channel when the
// gateway is not configured.
func NewWhatsAppChannel(gatewayURL, apiKey string) MessageChannel {
	if gatewayURL == "" || apiKey == "" {
		return &noopChannel{}
	}
	return &whatsappChannel{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
	}
}

type whatsappTextBody struct {
	Body string `json:"body"`
}

type whatsappMessage struct {
	To   string           `json:"to"`
	Type string           `json:"type"`
	Text whatsappTextBody `json:"text"`
}

func (c *whatsappChannel) Send(ctx context.Context, phone, message string) error {
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}
	if message == "" {
		return fmt.Errorf("message is required")
	}

	payload, err := json.Marshal(whatsappMessage{
		To:   phone,
		Type: "text",
		Text: whatsappTextBody{Body: message},
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (c *whatsappChannel) Name() string {
	return "whatsapp"
}

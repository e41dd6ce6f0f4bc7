package service

import (
	"context"
	"fmt"

	"github.com/kavenegar/kavenegar-go"
)

type kavenegarChannel struct {
	api    *kavenegar.Kavenegar
	sender string
}

// NewKavenegarChannel creates an SMS fallback channel backed by
// Kavenegar. Returns a noop channel when the API key is not set.
func NewKavenegarChannel(apiKey, sender string) MessageChannel {
	if apiKey == "" {
		return &noopChannel{}
	}
	if sender == "" {
		sender = "10008663"
	}
	return &kavenegarChannel{
		api:    kavenegar.New(apiKey),
		sender: sender,
	}
}

func (c *kavenegarChannel) Send(ctx context.Context, phone, message string) error {
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}
	if message == "" {
		return fmt.Errorf("message is required")
	}

	res, err := c.api.Message.Send(c.sender, []string{phone}, message, nil)
	if err != nil {
		switch err := err.(type) {
		case *kavenegar.APIError:
			return fmt.Errorf("kavenegar API error: %w", err)
		case *kavenegar.HTTPError:
			return fmt.Errorf("kavenegar HTTP error: %w", err)
		default:
			return fmt.Errorf("failed to send SMS: %w", err)
		}
	}

	if len(res) == 0 {
		return fmt.Errorf("no response entries from Kavenegar")
	}

	return nil
}

func (c *kavenegarChannel) Name() string {
	return "sms"
}

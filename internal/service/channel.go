package service

import (
	"context"

	"github.com/devdattatalele/zapmygoal/internal/errs"
)

// MessageChannel abstracts outbound message delivery providers.
type MessageChannel interface {
	// Send delivers a plain-text message to the given phone number.
	Send(ctx context.Context, phone, message string) error
	// Name identifies the channel in logs and metrics.
	Name() string
}

type noopChannel struct{}

// NewNoopChannel returns a channel that rejects every send. Used when
// a provider is not configured so the pipeline never blocks on it.
func NewNoopChannel() MessageChannel {
	return &noopChannel{}
}

func (c *noopChannel) Send(ctx context.Context, phone, message string) error {
	return errs.ErrNotImplemented
}

func (c *noopChannel) Name() string {
	return "noop"
}

package service

import (
	"context"
	"time"

	"github.com/devdattatalele/zapmygoal/internal/gemini"
)

// RelevanceClassifier judges whether proof media relates to the
// declared task. Implemented by the Gemini client; an interface for
// easier testing.
type RelevanceClassifier interface {
	VerifyRelevance(ctx context.Context, image []byte, mimeType, title, description, verificationDetails string) (gemini.RelevanceResult, error)
}

// DeadlineParser turns natural-language deadline phrases into absolute
// timestamps.
type DeadlineParser interface {
	ParseDeadline(ctx context.Context, phrase string, now time.Time) (time.Time, error)
}

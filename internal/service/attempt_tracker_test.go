package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideAttempt(t *testing.T) {
	tests := []struct {
		name     string
		input    AttemptInput
		expected AttemptDecision
	}{
		{
			name:     "first timestamp failure retries",
			input:    AttemptInput{MetadataAttemptsUsed: 0, TimestampValid: false},
			expected: AttemptDecision{Verdict: VerdictRetry, Reason: FailureReasonMetadata},
		},
		{
			name:     "second timestamp failure retries",
			input:    AttemptInput{MetadataAttemptsUsed: 1, TimestampValid: false},
			expected: AttemptDecision{Verdict: VerdictRetry, Reason: FailureReasonMetadata},
		},
		{
			name:     "third timestamp failure exhausts",
			input:    AttemptInput{MetadataAttemptsUsed: 2, TimestampValid: false},
			expected: AttemptDecision{Verdict: VerdictExhausted, Reason: FailureReasonMetadata},
		},
		{
			name:     "timestamp failure ignores AI fields",
			input:    AttemptInput{MetadataAttemptsUsed: 0, TimestampValid: false, AIValid: true, AIConfidence: 100},
			expected: AttemptDecision{Verdict: VerdictRetry, Reason: FailureReasonMetadata},
		},
		{
			name:     "confidence 69 fails even when classifier says valid",
			input:    AttemptInput{TimestampValid: true, AIValid: true, AIConfidence: 69},
			expected: AttemptDecision{Verdict: VerdictRetry, Reason: FailureReasonAI},
		},
		{
			name:     "confidence 70 passes",
			input:    AttemptInput{TimestampValid: true, AIValid: true, AIConfidence: 70},
			expected: AttemptDecision{Verdict: VerdictPass, Reason: FailureReasonNone},
		},
		{
			name:     "high confidence but invalid fails",
			input:    AttemptInput{TimestampValid: true, AIValid: false, AIConfidence: 95},
			expected: AttemptDecision{Verdict: VerdictRetry, Reason: FailureReasonAI},
		},
		{
			name:     "first AI failure retries",
			input:    AttemptInput{TimestampValid: true, AIValid: false, AIConfidence: 40, AIAttemptsUsed: 0},
			expected: AttemptDecision{Verdict: VerdictRetry, Reason: FailureReasonAI},
		},
		{
			name:     "second AI failure exhausts",
			input:    AttemptInput{TimestampValid: true, AIValid: false, AIConfidence: 40, AIAttemptsUsed: 1},
			expected: AttemptDecision{Verdict: VerdictExhausted, Reason: FailureReasonAI},
		},
		{
			name:     "pass consumes nothing even with prior failures",
			input:    AttemptInput{MetadataAttemptsUsed: 2, AIAttemptsUsed: 1, TimestampValid: true, AIValid: true, AIConfidence: 85},
			expected: AttemptDecision{Verdict: VerdictPass, Reason: FailureReasonNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecideAttempt(tt.input))
		})
	}
}

package service

// Verdict is the outcome of one verification attempt. Exactly one is
// produced per invocation.
type Verdict string

const (
	VerdictPass      Verdict = "pass"
	VerdictRetry     Verdict = "retry"
	VerdictExhausted Verdict = "exhausted"
)

// FailureReason identifies which check drove a retry/exhausted verdict.
type FailureReason string

const (
	FailureReasonNone     FailureReason = ""
	FailureReasonMetadata FailureReason = "metadata"
	FailureReasonAI       FailureReason = "ai"
)

// Attempt budgets: three timestamp attempts, one retry after an AI
// failure. MinConfidence is the inclusive pass threshold.
const (
	MetadataAttemptBudget = 3
	AIAttemptBudget       = 2
	MinConfidence         = 70
)

// AttemptInput carries the attempt counters as they stood BEFORE the
// current attempt, plus the outcomes of the two checks. The AI fields
// are only meaningful when TimestampValid is true; the AI check is
// skipped entirely otherwise.
type AttemptInput struct {
	MetadataAttemptsUsed int
	AIAttemptsUsed       int
	TimestampValid       bool
	AIValid              bool
	AIConfidence         int
}

// AttemptDecision pairs the verdict with the reason that drove it
// (none on pass).
type AttemptDecision struct {
	Verdict Verdict
	Reason  FailureReason
}

// DecideAttempt is the pure attempt-tracking policy. It is
// deterministic and side-effect-free; callers are responsible for
// persisting the incremented counter for the reason returned.
func DecideAttempt(in AttemptInput) AttemptDecision {
	if !in.TimestampValid {
		// This failure consumes one metadata attempt. Two already used
		// means this is the third strike.
		if in.MetadataAttemptsUsed >= MetadataAttemptBudget-1 {
			return AttemptDecision{Verdict: VerdictExhausted, Reason: FailureReasonMetadata}
		}
		return AttemptDecision{Verdict: VerdictRetry, Reason: FailureReasonMetadata}
	}

	if !in.AIValid || in.AIConfidence < MinConfidence {
		if in.AIAttemptsUsed == 0 {
			return AttemptDecision{Verdict: VerdictRetry, Reason: FailureReasonAI}
		}
		return AttemptDecision{Verdict: VerdictExhausted, Reason: FailureReasonAI}
	}

	return AttemptDecision{Verdict: VerdictPass, Reason: FailureReasonNone}
}

package service

import (
	"context"
	"fmt"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/gemini"
	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/retry"
)

// PipelineInput is one verification attempt: the proof media, its
// extracted metadata and the attempt counters as they stood before
// this attempt.
type PipelineInput struct {
	Challenge            *models.Challenge
	Image                []byte
	MimeType             string
	Metadata             models.ImageMetadata
	VerificationDetails  string
	MetadataAttemptsUsed int
	AIAttemptsUsed       int
}

// PipelineOutcome is the single verdict produced for an attempt,
// together with the individual check results for persistence and user
// messaging.
type PipelineOutcome struct {
	Decision  AttemptDecision
	Timestamp TimestampResult
	AI        gemini.RelevanceResult
	// AIRan is false when the timestamp check failed and the AI check
	// was skipped.
	AIRan bool
}

// VerificationPipeline orchestrates the timestamp check, the AI
// relevance check and the attempt tracker into one verification
// attempt.
type VerificationPipeline struct {
	timestampCheck *TimestampCheck
	classifier     RelevanceClassifier
	transportRetry retry.Policy
}

func NewVerificationPipeline(timestampCheck *TimestampCheck, classifier RelevanceClassifier, transportRetry retry.Policy) *VerificationPipeline {
	return &VerificationPipeline{
		timestampCheck: timestampCheck,
		classifier:     classifier,
		transportRetry: transportRetry,
	}
}

// Run executes one verification attempt. A returned error means the
// classifier was unreachable after the transport retry budget; that is
// an infrastructure failure (ErrExternalService), not a verification
// verdict, and the caller routes the submission to manual review.
func (p *VerificationPipeline) Run(ctx context.Context, in PipelineInput) (PipelineOutcome, error) {
	outcome := PipelineOutcome{
		Timestamp: p.timestampCheck.Check(in.Metadata),
		AI: gemini.RelevanceResult{
			Analysis: "Skipped due to timestamp failure",
		},
	}

	if outcome.Timestamp.Valid {
		var result gemini.RelevanceResult
		err := p.transportRetry.Do(ctx, func() error {
			var callErr error
			result, callErr = p.classifier.VerifyRelevance(ctx, in.Image, in.MimeType,
				in.Challenge.Title, in.Challenge.Description, in.VerificationDetails)
			return callErr
		})
		if err != nil {
			return outcome, fmt.Errorf("%w: relevance classifier: %s", errs.ErrExternalService, err)
		}
		outcome.AI = result
		outcome.AIRan = true
	}

	outcome.Decision = DecideAttempt(AttemptInput{
		MetadataAttemptsUsed: in.MetadataAttemptsUsed,
		AIAttemptsUsed:       in.AIAttemptsUsed,
		TimestampValid:       outcome.Timestamp.Valid,
		AIValid:              outcome.AI.IsValid,
		AIConfidence:         outcome.AI.Confidence,
	})

	return outcome, nil
}

// Notes builds the verification_notes text persisted on the
// submission: the timestamp failure reason when that check failed,
// otherwise the classifier analysis.
func (o PipelineOutcome) Notes() string {
	if !o.Timestamp.Valid {
		return o.Timestamp.Reason
	}
	return o.AI.Analysis
}

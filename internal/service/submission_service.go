package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/lock"
	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/repository"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
	"github.com/devdattatalele/zapmygoal/pkg/metrics"
)

// SubmissionService is the single verification engine. Both the
// direct upload API and the chat webhook feed it; every proof goes
// through the same checks, attempt budgets and settlement.
type SubmissionService interface {
	SubmitProof(ctx context.Context, input SubmitProofInput) (*SubmitProofResult, error)
	// SubmitFromChat resolves the sender's profile by phone and the
	// target challenge (the named one, or the most recent non-terminal
	// one) and then runs the same engine as SubmitProof.
	SubmitFromChat(ctx context.Context, input ChatProofInput) (*SubmitProofResult, error)
	GetSubmission(ctx context.Context, userID, challengeID string) (*models.Submission, error)
}

type SubmitProofInput struct {
	UserID      string
	ChallengeID string
	Image       []byte
	MimeType    string
	ProofText   string
	FileName    string
	// FileModified is the client-reported modification time, used as
	// a capture-time fallback when the image carries no EXIF.
	FileModified *time.Time
}

type ChatProofInput struct {
	Phone       string
	ChallengeID string
	MediaURL    string
	ProofText   string
}

// SubmitProofResult reports the attempt outcome. SettlementErr is set
// when the stake deduction came up short; the challenge is still
// failed in that case.
type SubmitProofResult struct {
	Challenge     *models.Challenge
	Submission    *models.Submission
	Verdict       Verdict
	Reason        FailureReason
	AttemptsLeft  int
	Notes         string
	SettlementErr error
}

type submissionService struct {
	challenges  repository.ChallengeRepository
	submissions repository.SubmissionRepository
	profiles    repository.ProfileRepository
	pipeline    *VerificationPipeline
	states      *StateMachine
	settlement  SettlementEngine
	media       MediaStore
	fetcher     MediaFetcher
	locks       lock.SubmissionLock
	notifier    Notifier
	metrics     *metrics.Metrics
	log         *logger.Logger
	now         func() time.Time
}

func NewSubmissionService(
	challenges repository.ChallengeRepository,
	submissions repository.SubmissionRepository,
	profiles repository.ProfileRepository,
	pipeline *VerificationPipeline,
	states *StateMachine,
	settlement SettlementEngine,
	media MediaStore,
	fetcher MediaFetcher,
	locks lock.SubmissionLock,
	notifier Notifier,
	m *metrics.Metrics,
	log *logger.Logger,
) SubmissionService {
	return &submissionService{
		challenges:  challenges,
		submissions: submissions,
		profiles:    profiles,
		pipeline:    pipeline,
		states:      states,
		settlement:  settlement,
		media:       media,
		fetcher:     fetcher,
		locks:       locks,
		notifier:    notifier,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

func (s *submissionService) SubmitProof(ctx context.Context, input SubmitProofInput) (*SubmitProofResult, error) {
	if len(input.Image) == 0 {
		return nil, errs.ValidationError("a proof photo is required")
	}

	challenge, err := s.challenges.FindByID(ctx, input.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if challenge == nil {
		return nil, fmt.Errorf("%w: challenge %s", errs.ErrNotFound, input.ChallengeID)
	}
	if challenge.UserID != input.UserID {
		return nil, errs.ErrNotOwner
	}
	if challenge.Terminal() {
		return nil, fmt.Errorf("%w: challenge is already %s", errs.ErrStateConflict, challenge.Status)
	}
	if challenge.Expired(s.now()) {
		return nil, fmt.Errorf("%w: the deadline has passed", errs.ErrStateConflict)
	}

	acquired, err := s.locks.Acquire(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim submission: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: a submission for this challenge is already being verified", errs.ErrStateConflict)
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), challenge.ID); err != nil {
			s.log.WithChallengeID(challenge.ID).WithField("error", err.Error()).
				Warn("failed to release submission claim")
		}
	}()

	return s.verify(ctx, challenge, input)
}

func (s *submissionService) SubmitFromChat(ctx context.Context, input ChatProofInput) (*SubmitProofResult, error) {
	if input.MediaURL == "" {
		return nil, errs.ValidationError("please attach a photo as proof for your challenge")
	}

	profile, err := s.profiles.FindByPhone(ctx, input.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: no profile for this phone number, create a challenge first", errs.ErrNotFound)
	}

	challengeID := input.ChallengeID
	if challengeID == "" {
		challenges, err := s.challenges.FindByUserID(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list challenges: %w", err)
		}
		// A challenge mid-verification is still open for resubmission:
		// the first attempt moves it to pending_verification, and the
		// remaining budget is burned from there.
		for i := range challenges {
			if !challenges[i].Terminal() {
				challengeID = challenges[i].ID
				break
			}
		}
		if challengeID == "" {
			return nil, fmt.Errorf("%w: no open challenges, create one first or name the challenge you are submitting proof for", errs.ErrNotFound)
		}
	}

	image, mimeType, err := s.fetcher.Fetch(ctx, input.MediaURL)
	if err != nil {
		return nil, err
	}

	return s.SubmitProof(ctx, SubmitProofInput{
		UserID:      profile.ID,
		ChallengeID: challengeID,
		Image:       image,
		MimeType:    mimeType,
		ProofText:   input.ProofText,
	})
}

// verify runs one attempt under an already-held claim.
func (s *submissionService) verify(ctx context.Context, challenge *models.Challenge, input SubmitProofInput) (*SubmitProofResult, error) {
	submission, err := s.submissions.FindByChallengeID(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	created := submission == nil
	if created {
		now := s.now()
		submission = &models.Submission{
			ID:          uuid.NewString(),
			ChallengeID: challenge.ID,
			UserID:      challenge.UserID,
			CreatedAt:   now,
		}
	}

	if err := s.states.MarkPendingVerification(ctx, challenge.ID); err != nil {
		return nil, err
	}
	challenge.Status = models.ChallengeStatusPendingVerification

	metadata := ExtractImageMetadata(input.Image, input.FileName, input.FileModified)

	submission.ProofText = input.ProofText
	submission.Metadata = metadata
	submission.VerificationStatus = models.VerificationStatusPending
	submission.Verified = nil
	submission.SubmittedAt = s.now()
	submission.UpdatedAt = submission.SubmittedAt

	imageURL, uploadErr := s.media.SaveProofImage(ctx, challenge.UserID, challenge.ID, input.Image, input.MimeType)
	if uploadErr != nil {
		submission.VerificationStatus = models.VerificationStatusManualReview
		submission.VerificationNotes = "Proof storage was unavailable; submission queued for manual review"
		if err := s.persist(ctx, submission, created); err != nil {
			return nil, err
		}
		s.metrics.VerificationVerdicts.WithLabelValues("manual_review", "storage").Inc()
		return nil, uploadErr
	}
	submission.ImageURL = imageURL

	outcome, pipelineErr := s.pipeline.Run(ctx, PipelineInput{
		Challenge:            challenge,
		Image:                input.Image,
		MimeType:             input.MimeType,
		Metadata:             metadata,
		VerificationDetails:  input.ProofText,
		MetadataAttemptsUsed: submission.MetadataAttempts,
		AIAttemptsUsed:       submission.AIAttempts,
	})
	if pipelineErr != nil {
		// Classifier unreachable. Fail closed: park the submission for
		// a human instead of burning an attempt or auto-failing.
		submission.VerificationStatus = models.VerificationStatusManualReview
		submission.VerificationNotes = "Automatic verification was unavailable; submission queued for manual review"
		if err := s.persist(ctx, submission, created); err != nil {
			return nil, err
		}
		s.metrics.VerificationVerdicts.WithLabelValues("manual_review", "classifier").Inc()
		return nil, pipelineErr
	}

	switch outcome.Decision.Reason {
	case FailureReasonMetadata:
		submission.MetadataAttempts++
	case FailureReasonAI:
		submission.AIAttempts++
	}
	submission.VerificationNotes = outcome.Notes()

	result := &SubmitProofResult{
		Challenge:  challenge,
		Submission: submission,
		Verdict:    outcome.Decision.Verdict,
		Reason:     outcome.Decision.Reason,
		Notes:      submission.VerificationNotes,
	}

	switch outcome.Decision.Verdict {
	case VerdictPass:
		verified := true
		submission.Verified = &verified
		submission.VerificationStatus = models.VerificationStatusApproved
		if err := s.persist(ctx, submission, created); err != nil {
			return nil, err
		}
		s.metrics.VerificationVerdicts.WithLabelValues("pass", "").Inc()
		s.complete(ctx, challenge)

	case VerdictRetry:
		submission.VerificationStatus = models.VerificationStatusPending
		if err := s.persist(ctx, submission, created); err != nil {
			return nil, err
		}
		s.metrics.VerificationVerdicts.WithLabelValues("retry", string(outcome.Decision.Reason)).Inc()
		result.AttemptsLeft = s.attemptsLeft(submission, outcome.Decision.Reason)

	case VerdictExhausted:
		verified := false
		submission.Verified = &verified
		submission.VerificationStatus = models.VerificationStatusFailed
		if err := s.persist(ctx, submission, created); err != nil {
			return nil, err
		}
		s.metrics.VerificationVerdicts.WithLabelValues("exhausted", string(outcome.Decision.Reason)).Inc()
		result.SettlementErr = s.fail(ctx, challenge)
	}

	return result, nil
}

// complete runs the success side effects. The settlement only fires
// on the first terminal transition; a lost race means another path
// already settled.
func (s *submissionService) complete(ctx context.Context, challenge *models.Challenge) {
	first, err := s.states.Complete(ctx, challenge.ID)
	if err != nil {
		s.log.WithChallengeID(challenge.ID).WithField("error", err.Error()).
			Error("failed to complete challenge")
		return
	}
	challenge.Status = models.ChallengeStatusCompleted
	if !first {
		return
	}
	if err := s.settlement.SettleSuccess(ctx, challenge); err != nil {
		s.log.WithChallengeID(challenge.ID).WithField("error", err.Error()).
			Error("success settlement failed")
	}
	s.notifier.NotifyCompletion(ctx, challenge)
}

// fail runs the failure side effects and reports the settlement error,
// if any. The failed status sticks regardless.
func (s *submissionService) fail(ctx context.Context, challenge *models.Challenge) error {
	first, err := s.states.Fail(ctx, challenge.ID)
	if err != nil {
		s.log.WithChallengeID(challenge.ID).WithField("error", err.Error()).
			Error("failed to fail challenge")
		return nil
	}
	challenge.Status = models.ChallengeStatusFailed
	if !first {
		return nil
	}

	settleErr := s.settlement.SettleFailure(ctx, challenge)
	var insufficient *errs.InsufficientBalanceError
	deducted := settleErr == nil
	if settleErr != nil && !errors.As(settleErr, &insufficient) {
		s.log.WithChallengeID(challenge.ID).WithField("error", settleErr.Error()).
			Error("failure settlement failed")
	}
	s.notifier.NotifyFailure(ctx, challenge, deducted)
	return settleErr
}

func (s *submissionService) persist(ctx context.Context, submission *models.Submission, created bool) error {
	var err error
	if created {
		err = s.submissions.Create(ctx, submission)
	} else {
		err = s.submissions.Update(ctx, submission)
	}
	if err != nil {
		return fmt.Errorf("failed to persist submission: %w", err)
	}
	return nil
}

func (s *submissionService) attemptsLeft(submission *models.Submission, reason FailureReason) int {
	switch reason {
	case FailureReasonMetadata:
		return MetadataAttemptBudget - submission.MetadataAttempts
	case FailureReasonAI:
		return AIAttemptBudget - submission.AIAttempts
	default:
		return 0
	}
}

func (s *submissionService) GetSubmission(ctx context.Context, userID, challengeID string) (*models.Submission, error) {
	challenge, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if challenge == nil {
		return nil, fmt.Errorf("%w: challenge %s", errs.ErrNotFound, challengeID)
	}
	if challenge.UserID != userID {
		return nil, errs.ErrNotOwner
	}

	submission, err := s.submissions.FindByChallengeID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, fmt.Errorf("%w: no submission for challenge %s", errs.ErrNotFound, challengeID)
	}
	return submission, nil
}

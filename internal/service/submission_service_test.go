package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/gemini"
	"github.com/devdattatalele/zapmygoal/internal/lock"
	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/retry"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

type submissionFixture struct {
	service     SubmissionService
	challenges  *MockChallengeRepository
	submissions *MockSubmissionRepository
	profiles    *MockProfileRepository
	classifier  *MockClassifier
	settlement  *MockSettlementEngine
	media       *MockMediaStore
	fetcher     *MockMediaFetcher
	notifier    *MockNotifier
	locks       *lock.MemoryLock
}

func newSubmissionFixture() *submissionFixture {
	f := &submissionFixture{
		challenges:  new(MockChallengeRepository),
		submissions: new(MockSubmissionRepository),
		profiles:    new(MockProfileRepository),
		classifier:  new(MockClassifier),
		settlement:  new(MockSettlementEngine),
		media:       new(MockMediaStore),
		fetcher:     new(MockMediaFetcher),
		notifier:    new(MockNotifier),
		locks:       lock.NewMemoryLock(),
	}

	pipeline := NewVerificationPipeline(
		NewTimestampCheck(),
		f.classifier,
		retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	)

	f.service = NewSubmissionService(
		f.challenges, f.submissions, f.profiles,
		pipeline, NewStateMachine(f.challenges), f.settlement,
		f.media, f.fetcher, f.locks, f.notifier,
		testMetrics(), logger.NewLogger("test"),
	)
	return f
}

func activeChallenge() *models.Challenge {
	return &models.Challenge{
		ID:       "ch-1",
		UserID:   "user-1",
		Title:    "Go to the gym",
		Stake:    500,
		Deadline: time.Now().Add(24 * time.Hour),
		Status:   models.ChallengeStatusActive,
	}
}

func validProofInput() SubmitProofInput {
	now := time.Now()
	return SubmitProofInput{
		UserID:       "user-1",
		ChallengeID:  "ch-1",
		Image:        []byte("proof image bytes"),
		MimeType:     "image/jpeg",
		FileName:     "proof.jpg",
		FileModified: &now,
	}
}

func (f *submissionFixture) expectPendingTransition() {
	f.challenges.On("TransitionStatus", mock.Anything, "ch-1",
		[]string{models.ChallengeStatusActive, models.ChallengeStatusPendingVerification},
		models.ChallengeStatusPendingVerification).Return(true, nil)
}

func TestSubmitProof_Guards(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		f := newSubmissionFixture()
		_, err := f.service.SubmitProof(context.Background(), SubmitProofInput{UserID: "user-1", ChallengeID: "ch-1"})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("unknown challenge", func(t *testing.T) {
		f := newSubmissionFixture()
		f.challenges.On("FindByID", mock.Anything, "ch-1").Return(nil, nil)
		_, err := f.service.SubmitProof(context.Background(), validProofInput())
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		f := newSubmissionFixture()
		challenge := activeChallenge()
		challenge.UserID = "someone-else"
		f.challenges.On("FindByID", mock.Anything, "ch-1").Return(challenge, nil)
		_, err := f.service.SubmitProof(context.Background(), validProofInput())
		assert.ErrorIs(t, err, errs.ErrNotOwner)
	})

	t.Run("terminal challenge", func(t *testing.T) {
		f := newSubmissionFixture()
		challenge := activeChallenge()
		challenge.Status = models.ChallengeStatusCompleted
		f.challenges.On("FindByID", mock.Anything, "ch-1").Return(challenge, nil)
		_, err := f.service.SubmitProof(context.Background(), validProofInput())
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})

	t.Run("expired challenge", func(t *testing.T) {
		f := newSubmissionFixture()
		challenge := activeChallenge()
		challenge.Deadline = time.Now().Add(-time.Hour)
		f.challenges.On("FindByID", mock.Anything, "ch-1").Return(challenge, nil)
		_, err := f.service.SubmitProof(context.Background(), validProofInput())
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})

	t.Run("concurrent submission is rejected", func(t *testing.T) {
		f := newSubmissionFixture()
		f.challenges.On("FindByID", mock.Anything, "ch-1").Return(activeChallenge(), nil)
		acquired, _ := f.locks.Acquire(context.Background(), "ch-1")
		assert.True(t, acquired)

		_, err := f.service.SubmitProof(context.Background(), validProofInput())
		assert.ErrorIs(t, err, errs.ErrStateConflict)
	})
}

// Scenario: three submissions without a usable timestamp burn the
// metadata budget and settle as a failure.
func TestSubmitProof_MetadataExhaustion(t *testing.T) {
	f := newSubmissionFixture()
	challenge := activeChallenge()
	input := validProofInput()
	input.FileModified = nil // no EXIF, no fallback: timestamp check fails

	f.challenges.On("FindByID", mock.Anything, "ch-1").Return(challenge, nil)
	f.expectPendingTransition()
	f.media.On("SaveProofImage", mock.Anything, "user-1", "ch-1", mock.Anything, "image/jpeg").
		Return("https://cdn.example.com/proof.jpg", nil)

	// Attempt 1: row created.
	f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(nil, nil).Once()
	f.submissions.On("Create", mock.Anything, mock.AnythingOfType("*models.Submission")).Return(nil).Once()

	result, err := f.service.SubmitProof(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, VerdictRetry, result.Verdict)
	assert.Equal(t, FailureReasonMetadata, result.Reason)
	assert.Equal(t, 2, result.AttemptsLeft)
	assert.Equal(t, 1, result.Submission.MetadataAttempts)

	// Attempt 2: same row, counter moves to 2.
	prior := *result.Submission
	f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(&prior, nil).Once()
	f.submissions.On("Update", mock.Anything, mock.AnythingOfType("*models.Submission")).Return(nil)

	result, err = f.service.SubmitProof(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, VerdictRetry, result.Verdict)
	assert.Equal(t, 1, result.AttemptsLeft)
	assert.Equal(t, 2, result.Submission.MetadataAttempts)

	// Attempt 3: exhausted, challenge fails and settles once.
	prior = *result.Submission
	f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(&prior, nil).Once()
	f.challenges.On("TransitionStatus", mock.Anything, "ch-1",
		[]string{models.ChallengeStatusActive, models.ChallengeStatusPendingVerification},
		models.ChallengeStatusFailed).Return(true, nil).Once()
	f.settlement.On("SettleFailure", mock.Anything, mock.AnythingOfType("*models.Challenge")).Return(nil).Once()
	f.notifier.On("NotifyFailure", mock.Anything, mock.AnythingOfType("*models.Challenge"), true).Once()

	result, err = f.service.SubmitProof(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, VerdictExhausted, result.Verdict)
	assert.Equal(t, models.ChallengeStatusFailed, result.Challenge.Status)
	assert.Equal(t, models.VerificationStatusFailed, result.Submission.VerificationStatus)
	assert.NotNil(t, result.Submission.Verified)
	assert.False(t, *result.Submission.Verified)

	f.settlement.AssertExpectations(t)
	f.classifier.AssertNotCalled(t, "VerifyRelevance")
}

// Scenario: first attempt with a fresh photo and a confident
// classifier completes the challenge without touching the balance.
func TestSubmitProof_FirstAttemptPass(t *testing.T) {
	f := newSubmissionFixture()
	f.challenges.On("FindByID", mock.Anything, "ch-1").Return(activeChallenge(), nil)
	f.expectPendingTransition()
	f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(nil, nil)
	f.submissions.On("Create", mock.Anything, mock.AnythingOfType("*models.Submission")).Return(nil)
	f.media.On("SaveProofImage", mock.Anything, "user-1", "ch-1", mock.Anything, "image/jpeg").
		Return("https://cdn.example.com/proof.jpg", nil)
	f.classifier.On("VerifyRelevance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(gemini.RelevanceResult{IsValid: true, Confidence: 85, Analysis: "Gym environment visible"}, nil)
	f.challenges.On("TransitionStatus", mock.Anything, "ch-1",
		[]string{models.ChallengeStatusPendingVerification},
		models.ChallengeStatusCompleted).Return(true, nil)
	f.settlement.On("SettleSuccess", mock.Anything, mock.AnythingOfType("*models.Challenge")).Return(nil)
	f.notifier.On("NotifyCompletion", mock.Anything, mock.AnythingOfType("*models.Challenge"))

	result, err := f.service.SubmitProof(context.Background(), validProofInput())

	assert.NoError(t, err)
	assert.Equal(t, VerdictPass, result.Verdict)
	assert.Equal(t, models.ChallengeStatusCompleted, result.Challenge.Status)
	assert.Equal(t, models.VerificationStatusApproved, result.Submission.VerificationStatus)
	assert.Equal(t, 0, result.Submission.MetadataAttempts)
	assert.Equal(t, 0, result.Submission.AIAttempts)
	assert.Equal(t, "https://cdn.example.com/proof.jpg", result.Submission.ImageURL)
	f.settlement.AssertCalled(t, "SettleSuccess", mock.Anything, mock.Anything)
	f.settlement.AssertNotCalled(t, "SettleFailure")
}

// Scenario: two low-confidence relevance verdicts exhaust the single
// AI retry and fail the challenge.
func TestSubmitProof_AIExhaustion(t *testing.T) {
	f := newSubmissionFixture()
	f.challenges.On("FindByID", mock.Anything, "ch-1").Return(activeChallenge(), nil)
	f.expectPendingTransition()
	f.media.On("SaveProofImage", mock.Anything, "user-1", "ch-1", mock.Anything, "image/jpeg").
		Return("https://cdn.example.com/proof.jpg", nil)
	f.classifier.On("VerifyRelevance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(gemini.RelevanceResult{IsValid: true, Confidence: 40, Analysis: "cannot tell"}, nil)

	f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(nil, nil).Once()
	f.submissions.On("Create", mock.Anything, mock.AnythingOfType("*models.Submission")).Return(nil).Once()

	result, err := f.service.SubmitProof(context.Background(), validProofInput())
	assert.NoError(t, err)
	assert.Equal(t, VerdictRetry, result.Verdict)
	assert.Equal(t, FailureReasonAI, result.Reason)
	assert.Equal(t, 1, result.AttemptsLeft)

	prior := *result.Submission
	f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(&prior, nil).Once()
	f.submissions.On("Update", mock.Anything, mock.AnythingOfType("*models.Submission")).Return(nil)
	f.challenges.On("TransitionStatus", mock.Anything, "ch-1",
		[]string{models.ChallengeStatusActive, models.ChallengeStatusPendingVerification},
		models.ChallengeStatusFailed).Return(true, nil).Once()
	f.settlement.On("SettleFailure", mock.Anything, mock.AnythingOfType("*models.Challenge")).Return(nil).Once()
	f.notifier.On("NotifyFailure", mock.Anything, mock.AnythingOfType("*models.Challenge"), true).Once()

	result, err = f.service.SubmitProof(context.Background(), validProofInput())
	assert.NoError(t, err)
	assert.Equal(t, VerdictExhausted, result.Verdict)
	assert.Equal(t, 2, result.Submission.AIAttempts)
}

// Scenario: the deduction comes up short; the challenge still ends
// failed and the shortfall is reported, not swallowed.
func TestSubmitProof_InsufficientBalance(t *testing.T) {
	f := newSubmissionFixture()
	f.challenges.On("FindByID", mock.Anything, "ch-1").Return(activeChallenge(), nil)
	f.expectPendingTransition()
	f.media.On("SaveProofImage", mock.Anything, "user-1", "ch-1", mock.Anything, "image/jpeg").
		Return("https://cdn.example.com/proof.jpg", nil)
	f.classifier.On("VerifyRelevance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(gemini.RelevanceResult{IsValid: false, Confidence: 10, Analysis: "unrelated"}, nil)

	prior := &models.Submission{
		ID: "sub-1", ChallengeID: "ch-1", UserID: "user-1",
		AIAttempts: 1,
	}
	f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(prior, nil)
	f.submissions.On("Update", mock.Anything, mock.AnythingOfType("*models.Submission")).Return(nil)
	f.challenges.On("TransitionStatus", mock.Anything, "ch-1",
		[]string{models.ChallengeStatusActive, models.ChallengeStatusPendingVerification},
		models.ChallengeStatusFailed).Return(true, nil)
	shortfall := &errs.InsufficientBalanceError{UserID: "user-1", ChallengeID: "ch-1", Stake: 500, Balance: 100}
	f.settlement.On("SettleFailure", mock.Anything, mock.AnythingOfType("*models.Challenge")).Return(shortfall)
	f.notifier.On("NotifyFailure", mock.Anything, mock.AnythingOfType("*models.Challenge"), false)

	result, err := f.service.SubmitProof(context.Background(), validProofInput())

	assert.NoError(t, err)
	assert.Equal(t, VerdictExhausted, result.Verdict)
	assert.Equal(t, models.ChallengeStatusFailed, result.Challenge.Status)
	var insufficient *errs.InsufficientBalanceError
	assert.ErrorAs(t, result.SettlementErr, &insufficient)
}

func TestSubmitProof_ClassifierDownGoesToManualReview(t *testing.T) {
	f := newSubmissionFixture()
	f.challenges.On("FindByID", mock.Anything, "ch-1").Return(activeChallenge(), nil)
	f.expectPendingTransition()
	f.media.On("SaveProofImage", mock.Anything, "user-1", "ch-1", mock.Anything, "image/jpeg").
		Return("https://cdn.example.com/proof.jpg", nil)
	f.classifier.On("VerifyRelevance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(gemini.RelevanceResult{}, errors.New("gateway timeout"))
	f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(nil, nil)

	var persisted *models.Submission
	f.submissions.On("Create", mock.Anything, mock.AnythingOfType("*models.Submission")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(*models.Submission)
		}).Return(nil)

	_, err := f.service.SubmitProof(context.Background(), validProofInput())

	assert.ErrorIs(t, err, errs.ErrExternalService)
	assert.NotNil(t, persisted)
	assert.Equal(t, models.VerificationStatusManualReview, persisted.VerificationStatus)
	// The outage burns no verification attempts.
	assert.Equal(t, 0, persisted.MetadataAttempts)
	assert.Equal(t, 0, persisted.AIAttempts)
	f.settlement.AssertNotCalled(t, "SettleFailure")
}

func TestSubmitProof_StorageDownGoesToManualReview(t *testing.T) {
	f := newSubmissionFixture()
	f.challenges.On("FindByID", mock.Anything, "ch-1").Return(activeChallenge(), nil)
	f.expectPendingTransition()
	f.media.On("SaveProofImage", mock.Anything, "user-1", "ch-1", mock.Anything, "image/jpeg").
		Return("", errs.ErrExternalService)
	f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(nil, nil)
	f.submissions.On("Create", mock.Anything, mock.AnythingOfType("*models.Submission")).Return(nil)

	_, err := f.service.SubmitProof(context.Background(), validProofInput())

	assert.ErrorIs(t, err, errs.ErrExternalService)
	f.classifier.AssertNotCalled(t, "VerifyRelevance")
}

func TestSubmitFromChat(t *testing.T) {
	t.Run("resolves profile and most recent open challenge", func(t *testing.T) {
		f := newSubmissionFixture()
		f.profiles.On("FindByPhone", mock.Anything, "+919999999999").
			Return(&models.Profile{ID: "user-1", Phone: "+919999999999"}, nil)
		f.challenges.On("FindByUserID", mock.Anything, "user-1").Return([]models.Challenge{
			{ID: "ch-done", UserID: "user-1", Status: models.ChallengeStatusCompleted},
			*activeChallenge(),
		}, nil)
		f.fetcher.On("Fetch", mock.Anything, "https://media.example.com/m1").
			Return([]byte("proof image bytes"), "image/jpeg", nil)

		f.challenges.On("FindByID", mock.Anything, "ch-1").Return(activeChallenge(), nil)
		f.expectPendingTransition()
		f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(nil, nil)
		f.submissions.On("Create", mock.Anything, mock.AnythingOfType("*models.Submission")).Return(nil)
		f.media.On("SaveProofImage", mock.Anything, "user-1", "ch-1", mock.Anything, "image/jpeg").
			Return("https://cdn.example.com/proof.jpg", nil)
		// Chat media has no EXIF and no file-modified fallback, so this
		// lands as a metadata retry rather than reaching the classifier.

		result, err := f.service.SubmitFromChat(context.Background(), ChatProofInput{
			Phone:    "+919999999999",
			MediaURL: "https://media.example.com/m1",
		})

		assert.NoError(t, err)
		assert.Equal(t, VerdictRetry, result.Verdict)
		assert.Equal(t, FailureReasonMetadata, result.Reason)
	})

	// A retry verdict leaves the challenge in pending_verification;
	// resubmitting from chat without naming it must still find the
	// challenge and burn the next attempt.
	t.Run("resubmission reaches challenge mid-verification", func(t *testing.T) {
		f := newSubmissionFixture()
		pending := activeChallenge()
		pending.Status = models.ChallengeStatusPendingVerification

		f.profiles.On("FindByPhone", mock.Anything, "+919999999999").
			Return(&models.Profile{ID: "user-1", Phone: "+919999999999"}, nil)
		f.challenges.On("FindByUserID", mock.Anything, "user-1").
			Return([]models.Challenge{*pending}, nil)
		f.fetcher.On("Fetch", mock.Anything, "https://media.example.com/m2").
			Return([]byte("proof image bytes"), "image/jpeg", nil)

		f.challenges.On("FindByID", mock.Anything, "ch-1").Return(pending, nil)
		f.expectPendingTransition()
		prior := &models.Submission{
			ID: "sub-1", ChallengeID: "ch-1", UserID: "user-1",
			MetadataAttempts: 1,
		}
		f.submissions.On("FindByChallengeID", mock.Anything, "ch-1").Return(prior, nil)
		f.submissions.On("Update", mock.Anything, mock.AnythingOfType("*models.Submission")).Return(nil)
		f.media.On("SaveProofImage", mock.Anything, "user-1", "ch-1", mock.Anything, "image/jpeg").
			Return("https://cdn.example.com/proof.jpg", nil)

		result, err := f.service.SubmitFromChat(context.Background(), ChatProofInput{
			Phone:    "+919999999999",
			MediaURL: "https://media.example.com/m2",
		})

		assert.NoError(t, err)
		assert.Equal(t, VerdictRetry, result.Verdict)
		assert.Equal(t, 2, result.Submission.MetadataAttempts)
		assert.Equal(t, 1, result.AttemptsLeft)
	})

	t.Run("no media attached", func(t *testing.T) {
		f := newSubmissionFixture()
		_, err := f.service.SubmitFromChat(context.Background(), ChatProofInput{Phone: "+919999999999"})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("unknown phone", func(t *testing.T) {
		f := newSubmissionFixture()
		f.profiles.On("FindByPhone", mock.Anything, "+911111111111").Return(nil, nil)
		_, err := f.service.SubmitFromChat(context.Background(), ChatProofInput{
			Phone:    "+911111111111",
			MediaURL: "https://media.example.com/m1",
		})
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("no open challenge", func(t *testing.T) {
		f := newSubmissionFixture()
		f.profiles.On("FindByPhone", mock.Anything, "+919999999999").
			Return(&models.Profile{ID: "user-1", Phone: "+919999999999"}, nil)
		f.challenges.On("FindByUserID", mock.Anything, "user-1").Return([]models.Challenge{
			{ID: "ch-done", UserID: "user-1", Status: models.ChallengeStatusCompleted},
			{ID: "ch-lost", UserID: "user-1", Status: models.ChallengeStatusFailed},
		}, nil)
		_, err := f.service.SubmitFromChat(context.Background(), ChatProofInput{
			Phone:    "+919999999999",
			MediaURL: "https://media.example.com/m1",
		})
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

package service

import (
	"context"
	"fmt"

	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/repository"
)

// StateMachine owns challenge lifecycle transitions:
//
//	active -> pending_verification -> {completed | failed}
//
// completed and failed are terminal. All transitions go through
// guarded UPDATEs keyed on the expected source statuses, so a terminal
// row can never move again and a terminal transition fires exactly
// once. That single firing is what makes settlement idempotent.
type StateMachine struct {
	challenges repository.ChallengeRepository
}

func NewStateMachine(challenges repository.ChallengeRepository) *StateMachine {
	return &StateMachine{challenges: challenges}
}

// MarkPendingVerification enters pending_verification on submission
// creation. Re-entering from pending_verification is a no-op; every
// retry verdict lands here again.
func (m *StateMachine) MarkPendingVerification(ctx context.Context, challengeID string) error {
	_, err := m.challenges.TransitionStatus(ctx, challengeID,
		[]string{models.ChallengeStatusActive, models.ChallengeStatusPendingVerification},
		models.ChallengeStatusPendingVerification)
	if err != nil {
		return fmt.Errorf("failed to mark pending verification: %w", err)
	}
	return nil
}

// Complete moves pending_verification -> completed. Reports false when
// the challenge had already left pending_verification, in which case
// the caller must not settle again.
func (m *StateMachine) Complete(ctx context.Context, challengeID string) (bool, error) {
	return m.challenges.TransitionStatus(ctx, challengeID,
		[]string{models.ChallengeStatusPendingVerification},
		models.ChallengeStatusCompleted)
}

// Fail moves active/pending_verification -> failed, driven by attempt
// exhaustion or deadline expiry. Reports false when the challenge was
// already terminal.
func (m *StateMachine) Fail(ctx context.Context, challengeID string) (bool, error) {
	return m.challenges.TransitionStatus(ctx, challengeID,
		[]string{models.ChallengeStatusActive, models.ChallengeStatusPendingVerification},
		models.ChallengeStatusFailed)
}

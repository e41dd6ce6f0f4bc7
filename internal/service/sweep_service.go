package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/repository"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

// SweepService fails challenges that crossed their deadline without an
// approved submission. It shares the state machine and settlement
// engine with the verification path, so a sweep racing a late
// submission can never double-settle.
type SweepService struct {
	challenges repository.ChallengeRepository
	states     *StateMachine
	settlement SettlementEngine
	notifier   Notifier
	now        func() time.Time
	log        *logger.Logger
}

func NewSweepService(
	challenges repository.ChallengeRepository,
	states *StateMachine,
	settlement SettlementEngine,
	notifier Notifier,
	log *logger.Logger,
) *SweepService {
	return &SweepService{
		challenges: challenges,
		states:     states,
		settlement: settlement,
		notifier:   notifier,
		now:        time.Now,
		log:        log,
	}
}

// Sweep expires one batch of overdue challenges. Returns the number
// failed in this pass.
func (s *SweepService) Sweep(ctx context.Context) (int, error) {
	expired, err := s.challenges.FindExpired(ctx, s.now(), 100)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired challenges: %w", err)
	}

	failed := 0
	for i := range expired {
		challenge := &expired[i]

		first, err := s.states.Fail(ctx, challenge.ID)
		if err != nil {
			s.log.WithChallengeID(challenge.ID).WithField("error", err.Error()).
				Error("failed to expire challenge")
			continue
		}
		if !first {
			// A submission finishing between the query and the update
			// already moved the challenge; nothing to do.
			continue
		}
		failed++

		settleErr := s.settlement.SettleFailure(ctx, challenge)
		var insufficient *errs.InsufficientBalanceError
		if settleErr != nil && !errors.As(settleErr, &insufficient) {
			s.log.WithChallengeID(challenge.ID).WithField("error", settleErr.Error()).
				Error("expiry settlement failed")
		}
		s.notifier.NotifyFailure(ctx, challenge, settleErr == nil)
	}

	if failed > 0 {
		s.log.WithField("count", failed).Info("expired challenges swept")
	}
	return failed, nil
}

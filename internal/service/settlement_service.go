package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/repository"
	"github.com/devdattatalele/zapmygoal/pkg/helpers"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
	"github.com/devdattatalele/zapmygoal/pkg/metrics"
)

// SettlementEngine applies the financial consequence of a terminal
// verdict. It is invoked only by the first terminal transition and is
// additionally idempotent per challenge id: the ledger is checked for
// an existing entry before any write.
type SettlementEngine interface {
	// SettleFailure deducts the stake and appends a deduction entry.
	// When the balance cannot cover the stake the challenge stays
	// failed and the shortfall surfaces as InsufficientBalanceError.
	SettleFailure(ctx context.Context, challenge *models.Challenge) error
	// SettleSuccess appends an informational refund entry. The stake
	// was never escrowed, so no balance moves.
	SettleSuccess(ctx context.Context, challenge *models.Challenge) error
}

type settlementEngine struct {
	wallets      repository.WalletRepository
	transactions repository.TransactionRepository
	metrics      *metrics.Metrics
	log          *logger.Logger
}

func NewSettlementEngine(
	wallets repository.WalletRepository,
	transactions repository.TransactionRepository,
	m *metrics.Metrics,
	log *logger.Logger,
) SettlementEngine {
	return &settlementEngine{
		wallets:      wallets,
		transactions: transactions,
		metrics:      m,
		log:          log,
	}
}

func (s *settlementEngine) SettleFailure(ctx context.Context, challenge *models.Challenge) error {
	existing, err := s.transactions.FindByChallengeAndType(ctx, challenge.ID, models.TransactionTypeDeduction)
	if err != nil {
		return fmt.Errorf("failed to check existing deduction: %w", err)
	}
	if existing != nil {
		// Already settled; second invocation must not double-deduct.
		s.log.WithChallengeID(challenge.ID).Debug("deduction already recorded, skipping settlement")
		return nil
	}

	description := fmt.Sprintf("Challenge failed: %s", challenge.Title)
	err = s.wallets.Deduct(ctx, challenge.UserID, challenge.ID, challenge.Stake, description)

	var insufficient *errs.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		s.metrics.Settlements.WithLabelValues("failure", "insufficient_balance").Inc()
		s.log.WithChallengeID(challenge.ID).WithField("stake", challenge.Stake).
			WithField("balance", insufficient.Balance).
			Warn("stake deduction short: balance below stake")
		return err
	}
	if err != nil {
		s.metrics.Settlements.WithLabelValues("failure", "error").Inc()
		return fmt.Errorf("failed to settle failure: %w", err)
	}

	s.metrics.Settlements.WithLabelValues("failure", "deducted").Inc()
	s.log.WithChallengeID(challenge.ID).
		WithField("user_id", challenge.UserID).
		WithField("amount", helpers.FormatINR(challenge.Stake)).
		Info("stake deducted for failed challenge")
	return nil
}

func (s *settlementEngine) SettleSuccess(ctx context.Context, challenge *models.Challenge) error {
	existing, err := s.transactions.FindByChallengeAndType(ctx, challenge.ID, models.TransactionTypeRefund)
	if err != nil {
		return fmt.Errorf("failed to check existing refund: %w", err)
	}
	if existing != nil {
		s.log.WithChallengeID(challenge.ID).Debug("refund already recorded, skipping settlement")
		return nil
	}

	description := fmt.Sprintf("Challenge completed: %s", challenge.Title)
	if err := s.wallets.AppendRefund(ctx, challenge.UserID, challenge.ID, challenge.Stake, description); err != nil {
		s.metrics.Settlements.WithLabelValues("success", "error").Inc()
		return fmt.Errorf("failed to settle success: %w", err)
	}

	s.metrics.Settlements.WithLabelValues("success", "refund_recorded").Inc()
	s.log.WithChallengeID(challenge.ID).
		WithField("user_id", challenge.UserID).
		Info("challenge completed, stake kept")
	return nil
}

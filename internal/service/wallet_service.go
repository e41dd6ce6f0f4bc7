package service

import (
	"context"
	"fmt"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/repository"
	"github.com/devdattatalele/zapmygoal/pkg/helpers"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

const transactionHistoryLimit = 20

// WalletService exposes balance reads and deposits. Deductions happen
// only through the settlement engine.
type WalletService interface {
	Balance(ctx context.Context, userID string) (*models.Wallet, error)
	Deposit(ctx context.Context, userID string, amount int64) (*models.Wallet, error)
	Transactions(ctx context.Context, userID string) ([]models.Transaction, error)
}

type walletService struct {
	wallets      repository.WalletRepository
	transactions repository.TransactionRepository
	log          *logger.Logger
}

func NewWalletService(
	wallets repository.WalletRepository,
	transactions repository.TransactionRepository,
	log *logger.Logger,
) WalletService {
	return &walletService{
		wallets:      wallets,
		transactions: transactions,
		log:          log,
	}
}

func (s *walletService) Balance(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, err := s.wallets.CreateIfMissing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	return wallet, nil
}

func (s *walletService) Deposit(ctx context.Context, userID string, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, errs.ValidationError("deposit amount must be positive")
	}

	if _, err := s.wallets.CreateIfMissing(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	description := fmt.Sprintf("Wallet deposit of %s", helpers.FormatINR(amount))
	if err := s.wallets.Deposit(ctx, userID, amount, description); err != nil {
		return nil, fmt.Errorf("failed to deposit: %w", err)
	}

	wallet, err := s.wallets.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload wallet: %w", err)
	}

	s.log.WithField("user_id", userID).WithField("amount", amount).Info("wallet deposit")
	return wallet, nil
}

func (s *walletService) Transactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	history, err := s.transactions.ListByUserID(ctx, userID, transactionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return history, nil
}

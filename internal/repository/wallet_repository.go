package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/models"
)

type WalletRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	// CreateIfMissing lazily provisions a zero-balance wallet.
	CreateIfMissing(ctx context.Context, userID string) (*models.Wallet, error)
	// Deposit atomically adds to the balance and appends a deposit
	// ledger entry.
	Deposit(ctx context.Context, userID string, amount int64, description string) error
	// Deduct atomically subtracts the amount and appends a deduction
	// entry referencing the challenge. Returns InsufficientBalanceError
	// when the balance cannot cover the amount; nothing is written in
	// that case.
	Deduct(ctx context.Context, userID, challengeID string, amount int64, description string) error
	// AppendRefund records an informational refund entry. It does not
	// touch the balance.
	AppendRefund(ctx context.Context, userID, challengeID string, amount int64, description string) error
}

type walletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) FindByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	query := `SELECT id, user_id, balance, created_at, updated_at FROM wallets WHERE user_id = ?`
	wallet := &models.Wallet{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&wallet.ID, &wallet.UserID, &wallet.Balance, &wallet.CreatedAt, &wallet.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) CreateIfMissing(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	now := time.Now()
	wallet = &models.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO wallets (id, user_id, balance, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, wallet.ID, wallet.UserID, wallet.Balance, now, now); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) Deposit(ctx context.Context, userID string, amount int64, description string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE wallets SET balance = balance + ?, updated_at = ? WHERE user_id = ?`
	result, err := tx.ExecContext(ctx, query, amount, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to add balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: wallet for user %s", errs.ErrNotFound, userID)
	}

	if err := insertTransaction(ctx, tx, &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.TransactionTypeDeposit,
		Description: description,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *walletRepository) Deduct(ctx context.Context, userID, challengeID string, amount int64, description string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Guarded update: the balance condition makes the read-then-write
	// atomic relative to concurrent settlements for the same owner.
	query := `UPDATE wallets SET balance = balance - ?, updated_at = ? WHERE user_id = ? AND balance >= ?`
	result, err := tx.ExecContext(ctx, query, amount, time.Now(), userID, amount)
	if err != nil {
		return fmt.Errorf("failed to deduct balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var balance int64
		if err := tx.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE user_id = ?`, userID).Scan(&balance); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: wallet for user %s", errs.ErrNotFound, userID)
			}
			return fmt.Errorf("failed to read balance: %w", err)
		}
		return &errs.InsufficientBalanceError{
			UserID:      userID,
			ChallengeID: challengeID,
			Stake:       amount,
			Balance:     balance,
		}
	}

	if err := insertTransaction(ctx, tx, &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.TransactionTypeDeduction,
		Description: description,
		ChallengeID: &challengeID,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *walletRepository) AppendRefund(ctx context.Context, userID, challengeID string, amount int64, description string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransaction(ctx, tx, &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.TransactionTypeRefund,
		Description: description,
		ChallengeID: &challengeID,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

func insertTransaction(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, amount, transaction_type, description, challenge_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		transaction.ID, transaction.UserID, transaction.Amount,
		transaction.Type, transaction.Description, transaction.ChallengeID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

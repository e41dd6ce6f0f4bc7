package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devdattatalele/zapmygoal/internal/models"
)

type TransactionRepository interface {
	ListByUserID(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	// FindByChallengeAndType finds a ledger entry for a challenge.
	// Settlement uses it as the idempotence check before writing.
	FindByChallengeAndType(ctx context.Context, challengeID, transactionType string) (*models.Transaction, error)
}

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = "id, user_id, amount, transaction_type, description, challenge_id, created_at"

func (r *transactionRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.ChallengeID, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

func (r *transactionRepository) FindByChallengeAndType(ctx context.Context, challengeID, transactionType string) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE challenge_id = ? AND transaction_type = ?
		LIMIT 1
	`
	transaction := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, query, challengeID, transactionType).Scan(
		&transaction.ID, &transaction.UserID, &transaction.Amount,
		&transaction.Type, &transaction.Description, &transaction.ChallengeID,
		&transaction.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by challenge: %w", err)
	}
	return transaction, nil
}

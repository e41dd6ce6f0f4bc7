package models

import "time"

// Transaction types. Refund entries are informational only and never
// move the balance: the stake is not escrowed at creation, so a
// completed challenge has nothing to return.
const (
	TransactionTypeDeposit   = "deposit"
	TransactionTypeDeduction = "deduction"
	TransactionTypeRefund    = "refund"
)

// Wallet holds a user's balance in whole rupees. Balance never goes
// negative: deductions are guarded at the SQL level.
type Wallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is one ledger entry.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"transaction_type"`
	Description string    `json:"description"`
	ChallengeID *string   `json:"challenge_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

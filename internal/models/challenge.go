package models

import "time"

// Challenge status values. A challenge starts active, moves to
// pending_verification on the first proof submission and ends in
// completed or failed. Terminal statuses never change again.
const (
	ChallengeStatusActive              = "active"
	ChallengeStatusPendingVerification = "pending_verification"
	ChallengeStatusCompleted           = "completed"
	ChallengeStatusFailed              = "failed"
)

// MinStake is the minimum amount (whole rupees) a challenge can stake.
const MinStake int64 = 50

// Challenge represents a self-accountability task with money at stake.
type Challenge struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Stake       int64     `json:"stake"`
	Deadline    time.Time `json:"deadline"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Terminal reports whether the challenge is in a final state.
func (c *Challenge) Terminal() bool {
	return c.Status == ChallengeStatusCompleted || c.Status == ChallengeStatusFailed
}

// Expired reports whether the deadline has passed at the given instant.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.Deadline)
}

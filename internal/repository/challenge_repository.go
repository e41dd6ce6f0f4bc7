package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/devdattatalele/zapmygoal/internal/models"
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	FindByID(ctx context.Context, id string) (*models.Challenge, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Challenge, error)
	// TransitionStatus moves a challenge from one of the given statuses
	// to the new status. It reports false when no row matched, which
	// means the challenge was already past the expected states. This is
	// the guard that keeps terminal states terminal.
	TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error)
	// FindExpired returns non-terminal challenges whose deadline has
	// passed, for the sweep loop.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]models.Challenge, error)
}

type challengeRepository struct {
	db *sql.DB
}

func NewChallengeRepository(db *sql.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

const challengeColumns = "id, user_id, title, description, stake, deadline, status, created_at, updated_at"

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	query := `
		INSERT INTO challenges (id, user_id, title, description, stake, deadline, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		challenge.ID, challenge.UserID, challenge.Title, challenge.Description,
		challenge.Stake, challenge.Deadline, challenge.Status, now, now)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	challenge.CreatedAt = now
	challenge.UpdatedAt = now
	return nil
}

func (r *challengeRepository) FindByID(ctx context.Context, id string) (*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = ?`
	challenge := &models.Challenge{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&challenge.ID, &challenge.UserID, &challenge.Title, &challenge.Description,
		&challenge.Stake, &challenge.Deadline, &challenge.Status,
		&challenge.CreatedAt, &challenge.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find challenge: %w", err)
	}
	return challenge, nil
}

func (r *challengeRepository) FindByUserID(ctx context.Context, userID string) ([]models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []models.Challenge
	for rows.Next() {
		var c models.Challenge
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Title, &c.Description,
			&c.Stake, &c.Deadline, &c.Status,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate challenges: %w", err)
	}
	return challenges, nil
}

func (r *challengeRepository) TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("transition requires at least one source status")
	}

	placeholders := strings.Repeat("?, ", len(from)-1) + "?"
	query := fmt.Sprintf(`
		UPDATE challenges
		SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (%s)
	`, placeholders)

	args := []interface{}{to, time.Now(), id}
	for _, s := range from {
		args = append(args, s)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to transition challenge status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *challengeRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]models.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE status IN (?, ?) AND deadline < ?
		ORDER BY deadline ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query,
		models.ChallengeStatusActive, models.ChallengeStatusPendingVerification, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired challenges: %w", err)
	}
	defer rows.Close()

	var challenges []models.Challenge
	for rows.Next() {
		var c models.Challenge
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Title, &c.Description,
			&c.Stake, &c.Deadline, &c.Status,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired challenges: %w", err)
	}
	return challenges, nil
}

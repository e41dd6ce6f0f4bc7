package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devdattatalele/zapmygoal/internal/models"
)

type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	// FindPending returns unsent reminders that are due, joined with
	// the recipient phone and challenge details.
	FindPending(ctx context.Context, now time.Time, limit int) ([]models.PendingReminder, error)
	// MarkSent flips the sent flag exactly once. Reports false when
	// the reminder was already sent.
	MarkSent(ctx context.Context, id string) (bool, error)
}

type reminderRepository struct {
	db *sql.DB
}

func NewReminderRepository(db *sql.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	query := `
		INSERT INTO reminders (id, user_id, challenge_id, remind_at, sent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		reminder.ID, reminder.UserID, reminder.ChallengeID,
		reminder.RemindAt, reminder.Sent, now, now)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (r *reminderRepository) FindPending(ctx context.Context, now time.Time, limit int) ([]models.PendingReminder, error) {
	query := `
		SELECT r.id, r.user_id, r.challenge_id, r.remind_at, r.sent, r.created_at, r.updated_at,
			p.phone, c.title, c.deadline
		FROM reminders r
		INNER JOIN profiles p ON p.id = r.user_id
		INNER JOIN challenges c ON c.id = r.challenge_id
		WHERE r.sent = FALSE AND r.remind_at <= ?
		ORDER BY r.remind_at ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.PendingReminder
	for rows.Next() {
		var pr models.PendingReminder
		if err := rows.Scan(
			&pr.ID, &pr.UserID, &pr.ChallengeID, &pr.RemindAt, &pr.Sent,
			&pr.CreatedAt, &pr.UpdatedAt,
			&pr.Phone, &pr.ChallengeTitle, &pr.Deadline,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pending reminder: %w", err)
		}
		reminders = append(reminders, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending reminders: %w", err)
	}
	return reminders, nil
}

func (r *reminderRepository) MarkSent(ctx context.Context, id string) (bool, error) {
	query := `UPDATE reminders SET sent = TRUE, updated_at = ? WHERE id = ? AND sent = FALSE`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

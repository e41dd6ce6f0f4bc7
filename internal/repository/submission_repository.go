package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devdattatalele/zapmygoal/internal/models"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	// Update overwrites the single submission row for a challenge.
	// Resubmission reuses the row rather than creating a new one.
	Update(ctx context.Context, submission *models.Submission) error
	FindByChallengeID(ctx context.Context, challengeID string) (*models.Submission, error)
}

type submissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

const submissionColumns = `id, challenge_id, user_id, proof_text, image_url,
	capture_time, image_width, image_height, image_size, file_name,
	verification_status, verified, metadata_attempts, ai_attempts,
	verification_notes, submitted_at, created_at, updated_at`

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO task_submissions (id, challenge_id, user_id, proof_text, image_url,
			capture_time, image_width, image_height, image_size, file_name,
			verification_status, verified, metadata_attempts, ai_attempts,
			verification_notes, submitted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		submission.ID, submission.ChallengeID, submission.UserID,
		submission.ProofText, submission.ImageURL,
		submission.Metadata.CaptureTime, submission.Metadata.Width,
		submission.Metadata.Height, submission.Metadata.Size, submission.Metadata.FileName,
		submission.VerificationStatus, submission.Verified,
		submission.MetadataAttempts, submission.AIAttempts,
		submission.VerificationNotes, submission.SubmittedAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	query := `
		UPDATE task_submissions
		SET proof_text = ?, image_url = ?, capture_time = ?, image_width = ?,
			image_height = ?, image_size = ?, file_name = ?, verification_status = ?,
			verified = ?, metadata_attempts = ?, ai_attempts = ?,
			verification_notes = ?, submitted_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		submission.ProofText, submission.ImageURL,
		submission.Metadata.CaptureTime, submission.Metadata.Width,
		submission.Metadata.Height, submission.Metadata.Size, submission.Metadata.FileName,
		submission.VerificationStatus, submission.Verified,
		submission.MetadataAttempts, submission.AIAttempts,
		submission.VerificationNotes, submission.SubmittedAt, time.Now(),
		submission.ID)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) FindByChallengeID(ctx context.Context, challengeID string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM task_submissions WHERE challenge_id = ? LIMIT 1`
	submission := &models.Submission{}

	var captureTime sql.NullTime
	var verified sql.NullBool

	err := r.db.QueryRowContext(ctx, query, challengeID).Scan(
		&submission.ID, &submission.ChallengeID, &submission.UserID,
		&submission.ProofText, &submission.ImageURL,
		&captureTime, &submission.Metadata.Width,
		&submission.Metadata.Height, &submission.Metadata.Size, &submission.Metadata.FileName,
		&submission.VerificationStatus, &verified,
		&submission.MetadataAttempts, &submission.AIAttempts,
		&submission.VerificationNotes, &submission.SubmittedAt,
		&submission.CreatedAt, &submission.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}

	if captureTime.Valid {
		t := captureTime.Time
		submission.Metadata.CaptureTime = &t
	}
	if verified.Valid {
		v := verified.Bool
		submission.Verified = &v
	}

	return submission, nil
}

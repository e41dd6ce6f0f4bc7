package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devdattatalele/zapmygoal/internal/models"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByPhone(ctx context.Context, phone string) (*models.Profile, error)
	// UpsertByPhone returns the existing profile for the phone number
	// or creates one. Chat-originated commands identify users by phone
	// only.
	UpsertByPhone(ctx context.Context, phone string) (*models.Profile, error)
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT id, phone, created_at, updated_at FROM profiles WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *profileRepository) FindByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	query := `SELECT id, phone, created_at, updated_at FROM profiles WHERE phone = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, phone))
}

func (r *profileRepository) UpsertByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	existing, err := r.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	profile := &models.Profile{
		ID:        uuid.NewString(),
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO profiles (id, phone, created_at, updated_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, profile.ID, profile.Phone, now, now); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) scanOne(row *sql.Row) (*models.Profile, error) {
	profile := &models.Profile{}
	err := row.Scan(&profile.ID, &profile.Phone, &profile.CreatedAt, &profile.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return profile, nil
}

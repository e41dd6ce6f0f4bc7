package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/repository"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

var isoDeadlinePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

// ChallengeService manages challenge lifecycle outside of verification.
type ChallengeService interface {
	Create(ctx context.Context, input CreateChallengeInput) (*models.Challenge, error)
	Get(ctx context.Context, userID, challengeID string) (*models.Challenge, error)
	List(ctx context.Context, userID string) ([]models.Challenge, error)
	// MostRecentActive returns the newest active challenge for the
	// user, or nil when none exists. Used by the chat path when the
	// message does not name a challenge.
	MostRecentActive(ctx context.Context, userID string) (*models.Challenge, error)
}

type CreateChallengeInput struct {
	UserID      string
	Title       string
	Description string
	Stake       int64
	// Deadline is either an ISO timestamp or a natural-language
	// phrase such as "tomorrow at 8pm".
	Deadline string
}

type challengeService struct {
	challenges repository.ChallengeRepository
	parser     DeadlineParser
	now        func() time.Time
	log        *logger.Logger
}

func NewChallengeService(
	challenges repository.ChallengeRepository,
	parser DeadlineParser,
	log *logger.Logger,
) ChallengeService {
	return &challengeService{
		challenges: challenges,
		parser:     parser,
		now:        time.Now,
		log:        log,
	}
}

func (s *challengeService) Create(ctx context.Context, input CreateChallengeInput) (*models.Challenge, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errs.ValidationError("title is required")
	}
	if strings.TrimSpace(input.Deadline) == "" {
		return nil, errs.ValidationError("deadline is required")
	}
	if input.Stake < models.MinStake {
		return nil, errs.ValidationError("minimum challenge amount is ₹%d", models.MinStake)
	}

	deadline, err := s.resolveDeadline(ctx, input.Deadline)
	if err != nil {
		return nil, err
	}
	if !deadline.After(s.now()) {
		return nil, errs.ValidationError("deadline must be in the future")
	}

	now := s.now()
	challenge := &models.Challenge{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Stake:       input.Stake,
		Deadline:    deadline,
		Status:      models.ChallengeStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.challenges.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	s.log.WithChallengeID(challenge.ID).
		WithField("user_id", challenge.UserID).
		WithField("stake", challenge.Stake).
		Info("challenge created")
	return challenge, nil
}

// resolveDeadline accepts ISO timestamps directly and hands anything
// else to the language parser. A parser failure falls back to
// tomorrow 09:00 rather than rejecting the challenge.
func (s *challengeService) resolveDeadline(ctx context.Context, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if isoDeadlinePattern.MatchString(raw) {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errs.ValidationError("could not understand the deadline format, use a format like 'tomorrow at 8pm' or '2026-06-05T20:00:00'")
	}

	deadline, err := s.parser.ParseDeadline(ctx, raw, s.now())
	if err != nil {
		fallback := s.now().AddDate(0, 0, 1)
		fallback = time.Date(fallback.Year(), fallback.Month(), fallback.Day(), 9, 0, 0, 0, fallback.Location())
		s.log.WithField("deadline_phrase", raw).WithField("error", err.Error()).
			Warn("deadline parsing failed, defaulting to tomorrow morning")
		return fallback, nil
	}
	return deadline, nil
}

func (s *challengeService) Get(ctx context.Context, userID, challengeID string) (*models.Challenge, error) {
	challenge, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if challenge == nil {
		return nil, fmt.Errorf("%w: challenge %s", errs.ErrNotFound, challengeID)
	}
	if challenge.UserID != userID {
		return nil, errs.ErrNotOwner
	}
	return challenge, nil
}

func (s *challengeService) List(ctx context.Context, userID string) ([]models.Challenge, error) {
	challenges, err := s.challenges.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

func (s *challengeService) MostRecentActive(ctx context.Context, userID string) (*models.Challenge, error) {
	challenges, err := s.challenges.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	for i := range challenges {
		if challenges[i].Status == models.ChallengeStatusActive {
			return &challenges[i], nil
		}
	}
	return nil, nil
}

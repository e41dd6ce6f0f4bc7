package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/repository"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

// ReminderService schedules deadline nudges and dispatches the due
// ones.
type ReminderService interface {
	Set(ctx context.Context, input SetReminderInput) (*models.Reminder, error)
	// DispatchPending sends every due unsent reminder and marks each
	// one sent at most once. A delivery failure leaves the row unsent
	// for the next pass. Returns the number delivered.
	DispatchPending(ctx context.Context) (int, error)
}

type SetReminderInput struct {
	UserID      string
	ChallengeID string
	// RemindAt is an ISO timestamp or a natural-language phrase.
	RemindAt string
}

type reminderService struct {
	reminders  repository.ReminderRepository
	challenges repository.ChallengeRepository
	parser     DeadlineParser
	notifier   Notifier
	now        func() time.Time
	log        *logger.Logger
}

func NewReminderService(
	reminders repository.ReminderRepository,
	challenges repository.ChallengeRepository,
	parser DeadlineParser,
	notifier Notifier,
	log *logger.Logger,
) ReminderService {
	return &reminderService{
		reminders:  reminders,
		challenges: challenges,
		parser:     parser,
		notifier:   notifier,
		now:        time.Now,
		log:        log,
	}
}

func (s *reminderService) Set(ctx context.Context, input SetReminderInput) (*models.Reminder, error) {
	if strings.TrimSpace(input.RemindAt) == "" {
		return nil, errs.ValidationError("please specify when you want to be reminded")
	}

	challenge, err := s.resolveChallenge(ctx, input.UserID, input.ChallengeID)
	if err != nil {
		return nil, err
	}

	remindAt, err := s.resolveTime(ctx, input.RemindAt)
	if err != nil {
		return nil, err
	}
	if !remindAt.After(s.now()) {
		return nil, errs.ValidationError("the reminder time must be in the future")
	}
	if remindAt.After(challenge.Deadline) {
		return nil, errs.ValidationError("the reminder time can't be after the challenge deadline (%s)",
			challenge.Deadline.Format("Mon, 02 Jan 2006 15:04"))
	}

	now := s.now()
	reminder := &models.Reminder{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		ChallengeID: challenge.ID,
		RemindAt:    remindAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reminders.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.log.WithChallengeID(challenge.ID).WithField("remind_at", remindAt).
		Info("reminder scheduled")
	return reminder, nil
}

// resolveChallenge picks the named challenge or falls back to the most
// recent active one. Reminders only attach to active challenges.
func (s *reminderService) resolveChallenge(ctx context.Context, userID, challengeID string) (*models.Challenge, error) {
	if challengeID == "" {
		challenges, err := s.challenges.FindByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list challenges: %w", err)
		}
		for i := range challenges {
			if challenges[i].Status == models.ChallengeStatusActive {
				return &challenges[i], nil
			}
		}
		return nil, fmt.Errorf("%w: no active challenges to remind about", errs.ErrNotFound)
	}

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
	if challenge.Status != models.ChallengeStatusActive {
		return nil, fmt.Errorf("%w: challenge is already %s, reminders only apply to active challenges",
			errs.ErrStateConflict, challenge.Status)
	}
	return challenge, nil
}

func (s *reminderService) resolveTime(ctx context.Context, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if isoDeadlinePattern.MatchString(raw) {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				return t, nil
			}
		}
	}
	remindAt, err := s.parser.ParseDeadline(ctx, raw, s.now())
	if err != nil {
		return time.Time{}, errs.ValidationError("could not understand the reminder time format, use a format like 'tomorrow at 8pm'")
	}
	return remindAt, nil
}

func (s *reminderService) DispatchPending(ctx context.Context) (int, error) {
	pending, err := s.reminders.FindPending(ctx, s.now(), 100)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending reminders: %w", err)
	}

	sent := 0
	for i := range pending {
		reminder := &pending[i]
		if err := s.notifier.NotifyReminder(ctx, reminder); err != nil {
			s.log.WithChallengeID(reminder.ChallengeID).WithField("error", err.Error()).
				Warn("reminder delivery failed, leaving unsent")
			continue
		}

		marked, err := s.reminders.MarkSent(ctx, reminder.ID)
		if err != nil {
			s.log.WithChallengeID(reminder.ChallengeID).WithField("error", err.Error()).
				Error("failed to mark reminder sent")
			continue
		}
		if marked {
			sent++
		}
	}
	return sent, nil
}

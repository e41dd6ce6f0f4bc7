package service

import (
	"context"
	"fmt"
	"time"

	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/repository"
	"github.com/devdattatalele/zapmygoal/internal/retry"
	"github.com/devdattatalele/zapmygoal/pkg/helpers"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
	"github.com/devdattatalele/zapmygoal/pkg/metrics"
)

// Notifier delivers outcome and reminder messages to users. Delivery
// is best-effort: a failure is logged and counted but never fails the
// operation that triggered it.
type Notifier interface {
	NotifyCompletion(ctx context.Context, challenge *models.Challenge)
	NotifyFailure(ctx context.Context, challenge *models.Challenge, deducted bool)
	NotifyReminder(ctx context.Context, reminder *models.PendingReminder) error
}

type notifier struct {
	primary  MessageChannel
	fallback MessageChannel
	profiles repository.ProfileRepository
	retry    retry.Policy
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewNotifier(
	primary, fallback MessageChannel,
	profiles repository.ProfileRepository,
	policy retry.Policy,
	m *metrics.Metrics,
	log *logger.Logger,
) Notifier {
	return &notifier{
		primary:  primary,
		fallback: fallback,
		profiles: profiles,
		retry:    policy,
		metrics:  m,
		log:      log,
	}
}

func (n *notifier) NotifyCompletion(ctx context.Context, challenge *models.Challenge) {
	message := fmt.Sprintf(
		"✅ Proof verified successfully!\n\n*Challenge:* %s\n*Status:* Completed\n*Amount saved:* %s\n\nGreat job completing your challenge! Your money is safe. 🎉",
		challenge.Title, helpers.FormatINR(challenge.Stake),
	)
	n.deliverToUser(ctx, challenge.UserID, challenge.ID, message)
}

func (n *notifier) NotifyFailure(ctx context.Context, challenge *models.Challenge, deducted bool) {
	var message string
	if deducted {
		message = fmt.Sprintf(
			"❌ Challenge failed.\n\n*Challenge:* %s\n*Status:* Failed\n*Amount deducted:* %s\n\nYour stake has been deducted from your wallet. Set a new challenge to get back on track!",
			challenge.Title, helpers.FormatINR(challenge.Stake),
		)
	} else {
		message = fmt.Sprintf(
			"❌ Challenge failed.\n\n*Challenge:* %s\n*Status:* Failed\n*Stake:* %s\n\nYour wallet balance could not cover the stake. Please top up your wallet.",
			challenge.Title, helpers.FormatINR(challenge.Stake),
		)
	}
	n.deliverToUser(ctx, challenge.UserID, challenge.ID, message)
}

func (n *notifier) NotifyReminder(ctx context.Context, reminder *models.PendingReminder) error {
	message := fmt.Sprintf(
		"⏰ *Reminder: Challenge Due Soon!*\n\nYour challenge \"*%s*\" is due %s.\n\nMake sure to complete your task and submit proof to keep your money! Reply with a photo and \"proof for challenge %s\" to submit proof.",
		reminder.ChallengeTitle,
		reminder.Deadline.Format("Mon, 02 Jan 2006 15:04"),
		reminder.ChallengeID,
	)
	return n.deliver(ctx, reminder.Phone, reminder.ChallengeID, message)
}

// deliverToUser resolves the user's phone and sends without surfacing
// errors. Terminal outcomes must settle even when messaging is down.
func (n *notifier) deliverToUser(ctx context.Context, userID, challengeID, message string) {
	profile, err := n.profiles.FindByID(ctx, userID)
	if err != nil || profile == nil || profile.Phone == "" {
		n.log.WithChallengeID(challengeID).WithField("user_id", userID).
			Warn("no phone number on profile, skipping notification")
		return
	}

	if err := n.deliver(ctx, profile.Phone, challengeID, message); err != nil {
		n.log.WithChallengeID(challengeID).WithField("error", err.Error()).
			Warn("notification delivery failed on all channels")
	}
}

func (n *notifier) deliver(ctx context.Context, phone, challengeID, message string) error {
	// Detach from the request deadline so settlement latency does not
	// cut off delivery mid-send.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()

	err := n.retry.Do(sendCtx, func() error {
		return n.primary.Send(sendCtx, phone, message)
	})
	if err == nil {
		n.metrics.NotificationSends.WithLabelValues(n.primary.Name(), "sent").Inc()
		return nil
	}
	n.metrics.NotificationSends.WithLabelValues(n.primary.Name(), "failed").Inc()
	n.log.WithPhone(phone).WithField("challenge_id", challengeID).
		WithField("channel", n.primary.Name()).
		WithField("error", err.Error()).
		Warn("primary channel failed, trying fallback")

	if err := n.fallback.Send(sendCtx, phone, message); err != nil {
		n.metrics.NotificationSends.WithLabelValues(n.fallback.Name(), "failed").Inc()
		return fmt.Errorf("fallback channel %s: %w", n.fallback.Name(), err)
	}

	n.metrics.NotificationSends.WithLabelValues(n.fallback.Name(), "sent").Inc()
	return nil
}

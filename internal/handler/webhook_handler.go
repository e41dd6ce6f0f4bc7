package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/models"
	"github.com/devdattatalele/zapmygoal/internal/repository"
	"github.com/devdattatalele/zapmygoal/internal/service"
	"github.com/devdattatalele/zapmygoal/pkg/helpers"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

// WebhookHandler accepts chat-originated structured commands. Intent
// classification happens upstream; by the time a command lands here it
// is already structured, identified only by the sender's phone number.
type WebhookHandler struct {
	profiles    repository.ProfileRepository
	challenges  service.ChallengeService
	submissions service.SubmissionService
	reminders   service.ReminderService
	wallets     service.WalletService
	validate    *validator.Validate
	log         *logger.Logger
}

func NewWebhookHandler(
	profiles repository.ProfileRepository,
	challenges service.ChallengeService,
	submissions service.SubmissionService,
	reminders service.ReminderService,
	wallets service.WalletService,
	log *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		profiles:    profiles,
		challenges:  challenges,
		submissions: submissions,
		reminders:   reminders,
		wallets:     wallets,
		validate:    validator.New(),
		log:         log,
	}
}

// CommandRequest is one structured chat command.
type CommandRequest struct {
	Phone   string `json:"phone" validate:"required,e164"`
	Command string `json:"command" validate:"required,oneof=create_challenge submit_proof set_reminder list_challenges check_balance help"`

	// create_challenge
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	Deadline    string `json:"deadline,omitempty"`

	// submit_proof
	ChallengeID string `json:"challenge_id,omitempty"`
	MediaURL    string `json:"media_url,omitempty"`
	ProofText   string `json:"proof_text,omitempty"`

	// set_reminder
	RemindAt string `json:"remind_at,omitempty"`
}

// Handle handles POST /api/webhook/commands. Responses are chat-style
// text bodies the gateway can relay verbatim.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload: " + err.Error()})
		return
	}

	var (
		message string
		err     error
	)
	switch req.Command {
	case "create_challenge":
		message, err = h.createChallenge(c, req)
	case "submit_proof":
		message, err = h.submitProof(c, req)
	case "set_reminder":
		message, err = h.setReminder(c, req)
	case "list_challenges":
		message, err = h.listChallenges(c, req)
	case "check_balance":
		message, err = h.checkBalance(c, req)
	case "help":
		message = helpMessage
	}

	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": chatErrorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func (h *WebhookHandler) createChallenge(c *gin.Context, req CommandRequest) (string, error) {
	profile, err := h.profiles.UpsertByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		return "", err
	}

	challenge, err := h.challenges.Create(c.Request.Context(), service.CreateChallengeInput{
		UserID:      profile.ID,
		Title:       req.Title,
		Description: req.Description,
		Stake:       req.Amount,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"✅ Challenge created successfully!\n\n*Title:* %s\n*Stake:* %s\n*Deadline:* %s\n\nRemember to submit proof before the deadline to keep your money! Send a photo with \"proof for challenge\" when you're done.",
		challenge.Title,
		helpers.FormatINR(challenge.Stake),
		challenge.Deadline.Format("Mon, 02 Jan 15:04"),
	), nil
}

func (h *WebhookHandler) submitProof(c *gin.Context, req CommandRequest) (string, error) {
	result, err := h.submissions.SubmitFromChat(c.Request.Context(), service.ChatProofInput{
		Phone:       req.Phone,
		ChallengeID: req.ChallengeID,
		MediaURL:    req.MediaURL,
		ProofText:   req.ProofText,
	})
	if err != nil {
		return "", err
	}

	switch result.Verdict {
	case service.VerdictPass:
		return fmt.Sprintf(
			"✅ Proof verified successfully!\n\n*Challenge:* %s\n*Status:* Completed\n*Amount saved:* %s\n\nGreat job completing your challenge! Your money is safe. 🎉",
			result.Challenge.Title, helpers.FormatINR(result.Challenge.Stake),
		), nil
	case service.VerdictRetry:
		if result.Reason == service.FailureReasonMetadata {
			return fmt.Sprintf(
				"⚠️ We couldn't confirm the photo was taken today. Take a fresh photo and resubmit (%d attempts left).",
				result.AttemptsLeft,
			), nil
		}
		return fmt.Sprintf(
			"⚠️ Your proof couldn't be verified.\n\n*Challenge:* %s\n\nPlease make sure your image clearly shows something related to the challenge task and try again (%d attempt left). Remember, we just need to see that the image is related to your task category (e.g., gym environment for workout tasks).",
			result.Challenge.Title, result.AttemptsLeft,
		), nil
	default:
		message := fmt.Sprintf(
			"❌ Verification attempts are used up.\n\n*Challenge:* %s\n*Status:* Failed\n*Stake:* %s",
			result.Challenge.Title, helpers.FormatINR(result.Challenge.Stake),
		)
		if result.SettlementErr != nil {
			message += "\n\nYour wallet balance could not cover the stake. Please top up your wallet."
		}
		return message, nil
	}
}

func (h *WebhookHandler) setReminder(c *gin.Context, req CommandRequest) (string, error) {
	profile, err := h.profiles.FindByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", fmt.Errorf("%w: no profile for this phone number, create a challenge first", errs.ErrNotFound)
	}

	reminder, err := h.reminders.Set(c.Request.Context(), service.SetReminderInput{
		UserID:      profile.ID,
		ChallengeID: req.ChallengeID,
		RemindAt:    req.RemindAt,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("⏰ Reminder set for %s. We'll nudge you before the deadline!",
		reminder.RemindAt.Format("Mon, 02 Jan 15:04")), nil
}

func (h *WebhookHandler) listChallenges(c *gin.Context, req CommandRequest) (string, error) {
	profile, err := h.profiles.FindByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", fmt.Errorf("%w: no profile for this phone number, create a challenge first", errs.ErrNotFound)
	}

	challenges, err := h.challenges.List(c.Request.Context(), profile.ID)
	if err != nil {
		return "", err
	}
	if len(challenges) == 0 {
		return "You don't have any challenges yet. Send 'create challenge' to get started!", nil
	}

	var b strings.Builder
	b.WriteString("*Your Challenges*\n\n")
	writeGroup := func(header string, status string, withDeadline bool) {
		count := 0
		for _, challenge := range challenges {
			if challenge.Status != status {
				continue
			}
			if count == 0 {
				b.WriteString(header + "\n")
			}
			count++
			if withDeadline {
				fmt.Fprintf(&b, "%d. \"%s\" - %s - Due: %s\n", count, challenge.Title,
					helpers.FormatINR(challenge.Stake), challenge.Deadline.Format("02 Jan 15:04"))
			} else {
				fmt.Fprintf(&b, "%d. \"%s\" - %s\n", count, challenge.Title, helpers.FormatINR(challenge.Stake))
			}
		}
		if count > 0 {
			b.WriteString("\n")
		}
	}
	writeGroup("🟢 *Active Challenges:*", models.ChallengeStatusActive, true)
	writeGroup("🔎 *Being Verified:*", models.ChallengeStatusPendingVerification, true)
	writeGroup("✅ *Completed Challenges:*", models.ChallengeStatusCompleted, false)
	writeGroup("❌ *Failed Challenges:*", models.ChallengeStatusFailed, false)

	return strings.TrimRight(b.String(), "\n"), nil
}

func (h *WebhookHandler) checkBalance(c *gin.Context, req CommandRequest) (string, error) {
	profile, err := h.profiles.FindByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", fmt.Errorf("%w: no profile for this phone number, create a challenge first", errs.ErrNotFound)
	}

	wallet, err := h.wallets.Balance(c.Request.Context(), profile.ID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"*Your Wallet*\n\n💰 *Balance:* %s\n📱 *Phone:* %s\n📅 *Account created:* %s\n\nYour balance covers the stakes on your challenges. When a challenge fails, the stake is deducted from it.",
		helpers.FormatINR(wallet.Balance),
		profile.Phone,
		profile.CreatedAt.Format("02 Jan 2006"),
	), nil
}

const helpMessage = `*Welcome to the Challenge Bot!* 🚀

Put money on the line and get things done. Here's how to use this service:

*Create a Challenge* 📝
Send a message like:
"Create a challenge: Go to the gym for 1 hour
Amount: ₹500
Deadline: tomorrow at 6pm"

*Submit Proof* 📸
Send a photo with a message like:
"Proof for my challenge"

*Check Your Challenges* 📋
Send: "list challenges" or "show my challenges"

*Check Your Balance* 💰
Send: "balance" or "show balance"

*Set a Reminder* ⏰
Send: "remind me about my challenge tomorrow at 9am"

Good luck with your goals! 💪`

// chatErrorMessage turns the error taxonomy into chat-friendly text.
func chatErrorMessage(err error) string {
	var insufficient *errs.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		return "⚠️ Your wallet balance could not cover the stake. Please top up your wallet."
	case errors.Is(err, errs.ErrValidation):
		return "⚠️ " + capitalize(userMessage(err, errs.ErrValidation)) + "."
	case errors.Is(err, errs.ErrNotFound):
		return "⚠️ " + capitalize(userMessage(err, errs.ErrNotFound)) + "."
	case errors.Is(err, errs.ErrNotOwner):
		return "⚠️ This challenge doesn't belong to you."
	case errors.Is(err, errs.ErrStateConflict):
		return "⚠️ " + capitalize(userMessage(err, errs.ErrStateConflict)) + "."
	case errors.Is(err, errs.ErrExternalService):
		return "⚠️ Verification is temporarily unavailable. Your submission was saved for manual review."
	default:
		return "⚠️ Something went wrong. Please try again or contact support."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

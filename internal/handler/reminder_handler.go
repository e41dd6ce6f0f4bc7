package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devdattatalele/zapmygoal/internal/service"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

// ReminderHandler handles reminder requests
type ReminderHandler struct {
	reminders service.ReminderService
	log       *logger.Logger
}

func NewReminderHandler(reminders service.ReminderService, log *logger.Logger) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, log: log}
}

// SetReminderRequest is the set reminder payload. ChallengeID is
// optional; the most recent active challenge is used when omitted.
type SetReminderRequest struct {
	ChallengeID string `json:"challenge_id"`
	RemindAt    string `json:"remind_at" binding:"required"`
}

// Set handles POST /api/reminders
func (h *ReminderHandler) Set(c *gin.Context) {
	var req SetReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation",
			"message": "Please specify when you want to be reminded.",
		})
		return
	}

	reminder, err := h.reminders.Set(c.Request.Context(), service.SetReminderInput{
		UserID:      GetUserID(c),
		ChallengeID: req.ChallengeID,
		RemindAt:    req.RemindAt,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, reminder)
}

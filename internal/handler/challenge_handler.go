package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devdattatalele/zapmygoal/internal/service"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

// ChallengeHandler handles challenge CRUD requests
type ChallengeHandler struct {
	challenges service.ChallengeService
	log        *logger.Logger
}

func NewChallengeHandler(challenges service.ChallengeService, log *logger.Logger) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges, log: log}
}

// CreateChallengeRequest is the create challenge payload
type CreateChallengeRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Stake       int64  `json:"stake" binding:"required,gt=0"`
	Deadline    string `json:"deadline" binding:"required"`
}

// Create handles POST /api/challenges
func (h *ChallengeHandler) Create(c *gin.Context) {
	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation",
			"message": "Please provide a title, a positive stake and a deadline.",
		})
		return
	}

	challenge, err := h.challenges.Create(c.Request.Context(), service.CreateChallengeInput{
		UserID:      GetUserID(c),
		Title:       req.Title,
		Description: req.Description,
		Stake:       req.Stake,
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, challenge)
}

// List handles GET /api/challenges
func (h *ChallengeHandler) List(c *gin.Context) {
	challenges, err := h.challenges.List(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

// Get handles GET /api/challenges/:id
func (h *ChallengeHandler) Get(c *gin.Context) {
	challenge, err := h.challenges.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/internal/service"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

const maxProofSize = 10 << 20

// SubmissionHandler handles proof submission requests
type SubmissionHandler struct {
	submissions service.SubmissionService
	log         *logger.Logger
}

func NewSubmissionHandler(submissions service.SubmissionService, log *logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, log: log}
}

// Submit handles POST /api/challenges/:id/submissions. The body is a
// multipart form: "image" (the proof photo), optional "proof_text",
// optional "file_modified" (RFC3339, capture-time fallback for images
// without EXIF).
func (h *SubmissionHandler) Submit(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, h.log, errs.ValidationError("please attach a proof photo in the 'image' field"))
		return
	}
	if fileHeader.Size > maxProofSize {
		respondError(c, h.log, errs.ValidationError("the proof photo must be under 10MB"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxProofSize))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var fileModified *time.Time
	if raw := c.PostForm("file_modified"); raw != "" {
		if t, parseErr := time.Parse(time.RFC3339, raw); parseErr == nil {
			fileModified = &t
		}
	}

	result, err := h.submissions.SubmitProof(c.Request.Context(), service.SubmitProofInput{
		UserID:       GetUserID(c),
		ChallengeID:  c.Param("id"),
		Image:        image,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		ProofText:    c.PostForm("proof_text"),
		FileName:     fileHeader.Filename,
		FileModified: fileModified,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, submissionResponse(result))
}

// Get handles GET /api/challenges/:id/submissions
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, err := h.submissions.GetSubmission(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// submissionResponse shapes the verdict into an actionable payload.
func submissionResponse(result *service.SubmitProofResult) gin.H {
	body := gin.H{
		"verdict":          string(result.Verdict),
		"challenge_status": result.Challenge.Status,
		"submission":       result.Submission,
	}

	switch result.Verdict {
	case service.VerdictPass:
		body["message"] = "Proof verified successfully! Your money is safe."
	case service.VerdictRetry:
		body["attempts_left"] = result.AttemptsLeft
		if result.Reason == service.FailureReasonMetadata {
			body["message"] = "We couldn't confirm the photo was taken today. Take a fresh photo and resubmit."
		} else {
			body["message"] = "The photo doesn't clearly relate to your task. Make sure it shows the task environment and resubmit."
		}
	case service.VerdictExhausted:
		body["message"] = "Verification attempts are used up and the challenge is failed."
		if result.SettlementErr != nil {
			body["settlement"] = "Your balance could not cover the stake; please top up your wallet."
		}
	}
	return body
}

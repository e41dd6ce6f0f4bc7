package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/devdattatalele/zapmygoal/internal/errs"
	"github.com/devdattatalele/zapmygoal/pkg/helpers"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

// respondError maps the error taxonomy onto HTTP statuses. The body
// always tells the user what to do next; raw internals stay in the
// logs.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var insufficient *errs.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "insufficient_balance",
			"message": "Your wallet balance could not cover the stake. Please top up your wallet.",
			"stake":   helpers.FormatINR(insufficient.Stake),
			"balance": helpers.FormatINR(insufficient.Balance),
		})
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation",
			"message": userMessage(err, errs.ErrValidation),
		})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": userMessage(err, errs.ErrNotFound),
		})
	case errors.Is(err, errs.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "This challenge doesn't belong to you.",
		})
	case errors.Is(err, errs.ErrStateConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "state_conflict",
			"message": userMessage(err, errs.ErrStateConflict),
		})
	case errors.Is(err, errs.ErrExternalService):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "external_service",
			"message": "Verification is temporarily unavailable. Your submission was saved for manual review.",
		})
	default:
		log.WithField("error", err.Error()).Error("unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal",
			"message": "Something went wrong. Please try again or contact support.",
		})
	}
}

// userMessage strips the sentinel prefix so the wrapped detail reads
// as a plain sentence.
func userMessage(err error, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return msg
}

package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devdattatalele/zapmygoal/pkg/logger"
	"github.com/devdattatalele/zapmygoal/pkg/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Challenges  *ChallengeHandler
	Submissions *SubmissionHandler
	Wallet      *WalletHandler
	Reminders   *ReminderHandler
	Webhook     *WebhookHandler
}

// NewRouter builds the gin engine with logging and metrics middleware
// and all routes mounted.
func NewRouter(h Handlers, db *sql.DB, m *metrics.Metrics, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger(log))
	router.Use(metrics.Middleware(m))

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.POST("/webhook/commands", h.Webhook.Handle)

	authed := api.Group("")
	authed.Use(RequireUser())
	{
		authed.POST("/challenges", h.Challenges.Create)
		authed.GET("/challenges", h.Challenges.List)
		authed.GET("/challenges/:id", h.Challenges.Get)
		authed.POST("/challenges/:id/submissions", h.Submissions.Submit)
		authed.GET("/challenges/:id/submissions", h.Submissions.Get)
		authed.GET("/wallet", h.Wallet.Balance)
		authed.POST("/wallet/deposits", h.Wallet.Deposit)
		authed.GET("/wallet/transactions", h.Wallet.Transactions)
		authed.POST("/reminders", h.Reminders.Set)
	}

	return router
}

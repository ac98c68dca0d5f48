// Package router assembles the HTTP routes of the API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendlens/internal/handlers"
	"spendlens/internal/middleware"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Import      *handlers.ImportHandler
	Transaction *handlers.TransactionHandler
	Correction  *handlers.CorrectionHandler
	Rule        *handlers.RuleHandler
	Budget      *handlers.BudgetHandler
	Note        *handlers.NoteHandler
	Insight     *handlers.InsightHandler
}

// New builds the Gin engine. Ingest routes authenticate with ingestAPIKey;
// everything else under /api/v1 requires a bearer token.
func New(h Handlers, ingestAPIKey string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging())
	r.Use(middleware.ErrorHandler())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-User-Scope, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Service-to-service ingestion
	ingest := v1.Group("/ingest")
	ingest.Use(middleware.IngestAuthMiddleware(ingestAPIKey))
	ingest.POST("/rows", h.Import.IngestRows)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	uploads := protected.Group("/uploads")
	uploads.POST("", h.Import.UploadStatement)
	uploads.GET("", h.Import.ListUploads)
	uploads.DELETE("/:id", h.Import.DeleteUpload)

	protected.DELETE("/banks/:name/transactions", h.Import.DeleteBankTransactions)

	transactions := protected.Group("/transactions")
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.PUT("/:id/category", h.Transaction.UpdateCategory)

	protected.POST("/corrections", h.Correction.ApplyBulkCorrection)

	rules := protected.Group("/rules")
	rules.GET("", h.Rule.GetRules)
	rules.PUT("", h.Rule.UpsertRule)
	rules.DELETE("/:id", h.Rule.DeleteRule)

	budgets := protected.Group("/budgets")
	budgets.GET("", h.Budget.GetBudgets)
	budgets.PUT("", h.Budget.UpsertBudget)
	budgets.DELETE("/:category", h.Budget.DeleteBudget)

	notes := protected.Group("/notes")
	notes.GET("", h.Note.GetNotes)
	notes.POST("/reconcile", h.Note.ReconcileLegacy)
	notes.PUT("/:signature", h.Note.UpsertNote)
	notes.DELETE("/:signature", h.Note.DeleteNote)

	insights := protected.Group("/insights")
	insights.GET("/overview", h.Insight.GetOverview)
	insights.GET("/subscriptions", h.Insight.GetSubscriptions)
	insights.GET("/cashflow", h.Insight.GetCashflow)
	insights.GET("/budget-suggestions", h.Insight.GetBudgetSuggestions)
	insights.GET("/merchants", h.Insight.GetMerchants)

	return r
}

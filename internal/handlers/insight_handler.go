package handlers

import (
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendlens/internal/errors"
	"spendlens/internal/insights"
	"spendlens/internal/services"
)

const defaultMerchantLimit = 10

// InsightHandler serves the derived views.
type InsightHandler struct {
	insightService services.InsightServicer
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(insightService services.InsightServicer) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

// GetOverview handles the period dashboard.
// @Summary     Period overview
// @Description Totals, comparison with the previous period, top categories, alerts and budget status. Defaults to the month of the latest transaction.
// @Tags        insights
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Calendar month (YYYY-MM)"
// @Param       from  query string false "Period start (YYYY-MM-DD), with to"
// @Param       to    query string false "Period end (YYYY-MM-DD), with from"
// @Success     200 {object} services.Overview "Overview"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /insights/overview [get]
func (h *InsightHandler) GetOverview(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.insightService.Overview(scope, period)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// parsePeriod reads either month or a from/to pair. Neither yields nil.
func parsePeriod(c *gin.Context) (*insights.Period, error) {
	if month := c.Query("month"); month != "" {
		d, err := civil.ParseDate(month + "-01")
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be YYYY-MM")
		}
		p := insights.MonthPeriod(d)
		return &p, nil
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		return nil, err
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return nil, err
	}
	if from == nil && to == nil {
		return nil, nil
	}
	if from == nil || to == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to must be given together")
	}
	p, err := insights.NewPeriod(*from, *to)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return &p, nil
}

// GetSubscriptions handles the recurring charge list.
// @Summary     Subscriptions
// @Description Recurring expenses with frequency, next due date and status
// @Tags        insights
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.SubscriptionReport "Subscriptions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /insights/subscriptions [get]
func (h *InsightHandler) GetSubscriptions(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.insightService.Subscriptions(scope)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetCashflow handles the balance projection.
// @Summary     Cash-flow projection
// @Description Day-by-day balance from today using recurring income and expenses
// @Tags        insights
// @Produce     json
// @Security    BearerAuth
// @Param       balance query number false "Starting balance (default 0)"
// @Success     200 {object} services.CashflowReport "Projection"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /insights/cashflow [get]
func (h *InsightHandler) GetCashflow(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance := decimal.Zero
	if raw := c.Query("balance"); raw != "" {
		balance, err = decimal.NewFromString(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "balance must be a number"))
			return
		}
	}

	report, err := h.insightService.Cashflow(scope, balance)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetBudgetSuggestions handles budget proposals.
// @Summary     Budget suggestions
// @Description Suggested monthly budgets from average spend, discretionary categories reduced
// @Tags        insights
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]insights.BudgetSuggestion "Suggestions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /insights/budget-suggestions [get]
func (h *InsightHandler) GetBudgetSuggestions(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	suggestions, err := h.insightService.BudgetSuggestions(scope)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetMerchants handles top merchant analytics.
// @Summary     Top merchants
// @Tags        insights
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Number of merchants (default 10)"
// @Success     200 {object} map[string][]insights.MerchantTotal "Merchants by spend"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /insights/merchants [get]
func (h *InsightHandler) GetMerchants(c *gin.Context) {
	scope, err := getUserScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit, err := parseIntQuery(c, "limit", defaultMerchantLimit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	merchants, err := h.insightService.Merchants(scope, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merchants": merchants})
}

package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"

	"spendlens/internal/categorize"
	"spendlens/internal/handlers"
	"spendlens/internal/logger"
	"spendlens/internal/middleware"
	"spendlens/internal/services"
	"spendlens/internal/testutil"
	"spendlens/internal/validator"
)

const testIngestKey = "integration-ingest-key"

// testApp holds the full application stack for flow tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	binding.EnableDecoderUseNumber = true
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	auditService := services.NewAuditService(db)
	ruleService := services.NewRuleService(db)
	budgetService := services.NewBudgetService(db)
	transactionService := services.NewTransactionService(db, 2)
	importService := services.NewImportService(db, ruleService, categorize.DefaultDictionary(), auditService)
	correctionService := services.NewCorrectionService(db, ruleService, auditService, 2)
	noteService := services.NewNoteService(db, auditService)
	insightService := services.NewInsightService(transactionService, budgetService, services.DefaultInsightSettings())

	r := New(Handlers{
		Import:      handlers.NewImportHandler(importService, 1<<20),
		Transaction: handlers.NewTransactionHandler(transactionService),
		Correction:  handlers.NewCorrectionHandler(correctionService),
		Rule:        handlers.NewRuleHandler(ruleService),
		Budget:      handlers.NewBudgetHandler(budgetService),
		Note:        handlers.NewNoteHandler(noteService),
		Insight:     handlers.NewInsightHandler(insightService),
	}, testIngestKey)

	return &testApp{DB: db, Router: r}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// ingest pushes rows through the service-to-service endpoint.
func (app *testApp) ingest(t *testing.T, scope, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/ingest/rows", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testIngestKey)
	req.Header.Set(middleware.ScopeHeader, scope)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// mustIngest ingests rows and fails the test unless the batch was accepted.
func (app *testApp) mustIngest(t *testing.T, scope, bank string, rows []map[string]string, skipDuplicates bool) map[string]interface{} {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"bank_name":       bank,
		"file_name":       strings.ToLower(bank) + ".csv",
		"skip_duplicates": skipDuplicates,
		"rows":            rows,
	})
	if err != nil {
		t.Fatalf("failed to encode rows: %v", err)
	}
	rec := app.ingest(t, scope, string(payload))
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)
}

// tokenFor issues an access token for scope.
func tokenFor(t *testing.T, scope string) string {
	t.Helper()
	token, err := middleware.GenerateAccessToken(scope, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// listTransactions returns every transaction of the caller via the paginated API.
func (app *testApp) listTransactions(t *testing.T, token, query string) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for page := 1; ; page++ {
		path := fmt.Sprintf("/api/v1/transactions?page=%d&page_size=100", page)
		if query != "" {
			path += "&" + query
		}
		rec := app.request("GET", path, "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("list transactions failed: %d %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		for _, item := range result["data"].([]interface{}) {
			out = append(out, item.(map[string]interface{}))
		}
		if float64(page) >= result["total_pages"].(float64) {
			return out
		}
	}
}

// hdfcRow builds one row in the HDFC statement layout.
func hdfcRow(date civil.Date, narration, withdrawal, deposit string) map[string]string {
	return map[string]string{
		"Date":            fmt.Sprintf("%02d/%02d/%04d", date.Day, int(date.Month), date.Year),
		"Narration":       narration,
		"Withdrawal Amt.": withdrawal,
		"Deposit Amt.":    deposit,
	}
}

func today() civil.Date {
	return civil.DateOf(time.Now().UTC())
}

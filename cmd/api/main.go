package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin/binding"

	"spendlens/internal/categorize"
	"spendlens/internal/config"
	"spendlens/internal/database"
	"spendlens/internal/handlers"
	"spendlens/internal/logger"
	"spendlens/internal/router"
	"spendlens/internal/services"
	"spendlens/internal/validator"
)

// @title           Spendlens API
// @version         1.0
// @description     Spendlens ingests bank statements, categorizes transactions and derives spending insights, subscriptions and cash-flow projections.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	dictionary, err := categorize.LoadDictionary(appConfig.MerchantDictionaryPath)
	if err != nil {
		return fmt.Errorf("failed to load merchant dictionary: %w", err)
	}
	log.Infow("merchant dictionary loaded", "entries", dictionary.Len())

	// Decimal amounts arrive as JSON numbers; keep their exact text.
	binding.EnableDecoderUseNumber = true
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	auditService := services.NewAuditService(db)
	ruleService := services.NewRuleService(db)
	budgetService := services.NewBudgetService(db)
	transactionService := services.NewTransactionService(db, appConfig.FetchPageSize)
	importService := services.NewImportService(db, ruleService, dictionary, auditService)
	correctionService := services.NewCorrectionService(db, ruleService, auditService, appConfig.FetchPageSize)
	noteService := services.NewNoteService(db, auditService)
	insightService := services.NewInsightService(transactionService, budgetService, services.InsightSettings{
		Insights:  appConfig.Insights(),
		Recurring: appConfig.Recurring(),
		Cashflow:  appConfig.Cashflow(),
	})

	engine := router.New(router.Handlers{
		Import:      handlers.NewImportHandler(importService, appConfig.MaxUploadBytes),
		Transaction: handlers.NewTransactionHandler(transactionService),
		Correction:  handlers.NewCorrectionHandler(correctionService),
		Rule:        handlers.NewRuleHandler(ruleService),
		Budget:      handlers.NewBudgetHandler(budgetService),
		Note:        handlers.NewNoteHandler(noteService),
		Insight:     handlers.NewInsightHandler(insightService),
	}, appConfig.IngestAPIKey)

	log.Infof("Starting Spendlens server on port %s", appConfig.Port)
	return engine.Run(":" + appConfig.Port)
}

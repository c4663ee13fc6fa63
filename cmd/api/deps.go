package main

import (
	"log"

	"tracker/internal/domain/banking"
	"tracker/internal/infrastructure/postgres"
	"tracker/internal/infrastructure/saltedge"
	httphandlers "tracker/internal/interfaces/http"
	"tracker/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	BankingHandler *httphandlers.BankingHandler

	// Services
	BankingService *banking.Service

	// Repositories (for the scheduler job provider)
	ConnectionRepo *postgres.ConnectionRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize repositories
	connectionRepo := postgres.NewConnectionRepository(db)
	accountRepo := postgres.NewBankAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)

	// Initialize aggregator client and banking service
	seClient := saltedge.NewClient(cfg.SaltEdge.AppID, cfg.SaltEdge.Secret, cfg.SaltEdge.BaseURL)
	bankingService := banking.NewService(
		seClient,
		connectionRepo,
		accountRepo,
		transactionRepo,
		cfg.SaltEdge.CountryCode,
		cfg.SaltEdge.ProviderCodes,
	)

	// Initialize handlers
	bankingHandler := httphandlers.NewBankingHandler(bankingService)

	return &Dependencies{
		DB:             db,
		BankingHandler: bankingHandler,
		BankingService: bankingService,
		ConnectionRepo: connectionRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}

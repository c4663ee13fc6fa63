package main

import (
	"net/http"

	"tracker/internal/shared/config"
	"tracker/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", handleHealth)

	// Banking routes, all behind the identity middleware
	identity := middleware.Identity

	mux.Handle("/api/banking/connect", identity(http.HandlerFunc(deps.BankingHandler.HandleConnect)))
	mux.Handle("/api/banking/callback", identity(http.HandlerFunc(deps.BankingHandler.HandleCallback)))
	mux.Handle("/api/banking/sync", identity(http.HandlerFunc(deps.BankingHandler.HandleSyncAll)))
	mux.Handle("/api/banking/connections", identity(http.HandlerFunc(deps.BankingHandler.HandleListConnections)))
	mux.Handle("/api/banking/connections/{id}", identity(http.HandlerFunc(deps.BankingHandler.HandleConnectionByID)))
	mux.Handle("/api/banking/connections/{id}/refresh", identity(http.HandlerFunc(deps.BankingHandler.HandleRefreshConnection)))
	mux.Handle("/api/banking/accounts", identity(http.HandlerFunc(deps.BankingHandler.HandleListAccounts)))
	mux.Handle("/api/banking/accounts/{id}/sync", identity(http.HandlerFunc(deps.BankingHandler.HandleSyncAccount)))
	mux.Handle("/api/banking/transactions", identity(http.HandlerFunc(deps.BankingHandler.HandleListTransactions)))
	mux.Handle("/api/banking/balance", identity(http.HandlerFunc(deps.BankingHandler.HandleBalance)))

	// Apply global middleware
	return middleware.Logging(middleware.Tracing(middleware.SecurityHeaders(middleware.CORS(cfg.Server.AllowedHosts)(mux))))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

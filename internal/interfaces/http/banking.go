package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"tracker/internal/domain/bankaccount"
	"tracker/internal/domain/banking"
	"tracker/internal/domain/connection"
	"tracker/internal/domain/transaction"
	"tracker/internal/shared/middleware"
)

// BankingHandler exposes the bank synchronization pipeline over HTTP.
type BankingHandler struct {
	bankingService *banking.Service
}

// NewBankingHandler creates a new banking handler
func NewBankingHandler(bankingService *banking.Service) *BankingHandler {
	return &BankingHandler{bankingService: bankingService}
}

// HTTP request/response types (transport layer concerns)
type ConnectRequest struct {
	ReturnURL    string `json:"return_url"`
	ProviderCode string `json:"provider_code,omitempty"`
}

type ConnectResponse struct {
	ConnectURL string `json:"connect_url"`
}

type CallbackRequest struct {
	ConnectionID string `json:"connection_id"`
}

type SyncResultResponse struct {
	ConnectionID      int64    `json:"connection_id"`
	AccountsFound     int      `json:"accounts_found"`
	TransactionsFound int      `json:"transactions_found"`
	Created           int      `json:"created"`
	Skipped           int      `json:"skipped"`
	Errors            []string `json:"errors"`
}

type SyncAllResponse struct {
	OK      bool                 `json:"ok"`
	Results []SyncResultResponse `json:"results"`
}

type BalanceResponse struct {
	Currency string  `json:"currency"`
	Total    float64 `json:"total"`
}

// HandleConnect starts the consent flow and returns the URL the user must
// visit to authorize access to their bank.
func (h *BankingHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	connectURL, err := h.bankingService.InitiateConnection(r.Context(), userID, req.ReturnURL, req.ProviderCode)
	if err != nil {
		if errors.Is(err, banking.ErrMissingReturnURL) || errors.Is(err, banking.ErrProviderNotAllowed) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error initiating connection for user %s: %v", userID, err)
		http.Error(w, "Failed to initiate connection", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ConnectResponse{ConnectURL: connectURL})
}

// HandleCallback stores the connection the user just authorized and runs the
// first sync before responding, so the app can show fresh data right away.
func (h *BankingHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConnectionID == "" {
		http.Error(w, "connection_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.bankingService.ProcessCallback(r.Context(), userID, req.ConnectionID)
	if err != nil {
		if errors.Is(err, banking.ErrUnknownConnection) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error processing callback for user %s: %v", userID, err)
		http.Error(w, "Failed to process callback", http.StatusInternalServerError)
		return
	}

	writeJSON(w, toSyncResultResponse(result))
}

// HandleSyncAll syncs every active connection the user has.
func (h *BankingHandler) HandleSyncAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ok2, results, err := h.bankingService.SyncAll(r.Context(), userID)
	if err != nil {
		log.Printf("Error syncing connections for user %s: %v", userID, err)
		http.Error(w, "Failed to sync", http.StatusInternalServerError)
		return
	}

	response := SyncAllResponse{OK: ok2, Results: make([]SyncResultResponse, 0, len(results))}
	for _, result := range results {
		response.Results = append(response.Results, toSyncResultResponse(result))
	}
	writeJSON(w, response)
}

// HandleListConnections returns all of the user's bank connections.
func (h *BankingHandler) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	connections, err := h.bankingService.ListConnections(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing connections for user %s: %v", userID, err)
		http.Error(w, "Failed to list connections", http.StatusInternalServerError)
		return
	}
	if connections == nil {
		connections = []connection.Connection{}
	}

	writeJSON(w, connections)
}

// HandleConnectionByID handles operations on one connection (DELETE).
func (h *BankingHandler) HandleConnectionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	connectionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		h.handleDisconnect(w, r, userID, connectionID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BankingHandler) handleDisconnect(w http.ResponseWriter, r *http.Request, userID string, connectionID int64) {
	if err := h.bankingService.Disconnect(r.Context(), userID, connectionID); err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error disconnecting connection %d for user %s: %v", connectionID, userID, err)
		http.Error(w, "Failed to disconnect", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRefreshConnection asks the aggregator to re-fetch bank data for a
// connection. The refresh completes asynchronously on the aggregator side.
func (h *BankingHandler) HandleRefreshConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	connectionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}

	accepted, err := h.bankingService.RefreshConnection(r.Context(), userID, connectionID)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error refreshing connection %d for user %s: %v", connectionID, userID, err)
		http.Error(w, "Failed to refresh connection", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]bool{"accepted": accepted})
}

// HandleListAccounts returns the user's active bank accounts.
func (h *BankingHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := h.bankingService.ListAccounts(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing accounts for user %s: %v", userID, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}
	if accounts == nil {
		accounts = []bankaccount.BankAccount{}
	}

	writeJSON(w, accounts)
}

// HandleSyncAccount syncs one bank account on demand.
func (h *BankingHandler) HandleSyncAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	result, err := h.bankingService.SyncAccount(r.Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, bankaccount.ErrAccountNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error syncing account %d for user %s: %v", accountID, userID, err)
		http.Error(w, "Failed to sync account", http.StatusInternalServerError)
		return
	}

	writeJSON(w, toSyncResultResponse(result))
}

// HandleListTransactions returns the user's transactions, optionally bounded
// by from/to query parameters (YYYY-MM-DD).
func (h *BankingHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	from, err := parseDateParam(r, "from")
	if err != nil {
		http.Error(w, "Invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		http.Error(w, "Invalid to date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	transactions, err := h.bankingService.ListTransactions(r.Context(), userID, from, to)
	if err != nil {
		log.Printf("Error listing transactions for user %s: %v", userID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []transaction.Transaction{}
	}

	writeJSON(w, transactions)
}

// HandleBalance returns the total balance of the user's active accounts in
// one currency. Defaults to DKK.
func (h *BankingHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = "DKK"
	}

	total, err := h.bankingService.TotalBalance(r.Context(), userID, currency)
	if err != nil {
		if errors.Is(err, bankaccount.ErrInvalidCurrency) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error computing balance for user %s: %v", userID, err)
		http.Error(w, "Failed to compute balance", http.StatusInternalServerError)
		return
	}

	writeJSON(w, BalanceResponse{Currency: currency, Total: total})
}

func toSyncResultResponse(result *banking.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		ConnectionID:      result.ConnectionID,
		AccountsFound:     result.AccountsFound,
		TransactionsFound: result.TransactionsFound,
		Created:           result.Created,
		Skipped:           result.Skipped,
		Errors:            result.Errors,
	}
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tracker/internal/domain/bankaccount"
	"tracker/internal/domain/banking"
	"tracker/internal/domain/connection"
	"tracker/internal/domain/transaction"
	"tracker/internal/infrastructure/saltedge"
	"tracker/internal/shared/middleware"
)

// MockClient implements saltedge.ClientInterface for testing
type MockClient struct {
	CreateConnectSessionFunc func(ctx context.Context, customerID, returnURL, countryCode string, providerCodes []string) (string, error)
	GetAccountsFunc          func(ctx context.Context, connectionID string) ([]saltedge.Account, error)
	RemoveConnectionFunc     func(ctx context.Context, connectionID string) bool
}

func (m *MockClient) CreateConnectSession(ctx context.Context, customerID, returnURL, countryCode string, providerCodes []string) (string, error) {
	if m.CreateConnectSessionFunc != nil {
		return m.CreateConnectSessionFunc(ctx, customerID, returnURL, countryCode, providerCodes)
	}
	return "", nil
}

func (m *MockClient) GetConnection(ctx context.Context, connectionID string) (*saltedge.Connection, error) {
	return nil, nil
}

func (m *MockClient) GetConnections(ctx context.Context, customerID string) ([]saltedge.Connection, error) {
	return nil, nil
}

func (m *MockClient) GetAccounts(ctx context.Context, connectionID string) ([]saltedge.Account, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, connectionID)
	}
	return nil, nil
}

func (m *MockClient) GetTransactions(ctx context.Context, accountID string, fromDate, toDate *time.Time) ([]saltedge.Transaction, error) {
	return nil, nil
}

func (m *MockClient) RefreshConnection(ctx context.Context, connectionID string) bool {
	return false
}

func (m *MockClient) RemoveConnection(ctx context.Context, connectionID string) bool {
	if m.RemoveConnectionFunc != nil {
		return m.RemoveConnectionFunc(ctx, connectionID)
	}
	return true
}

// MockConnectionRepo implements connection.Repository for testing
type MockConnectionRepo struct {
	GetByIDForUserFunc func(ctx context.Context, id int64, userID string) (*connection.Connection, error)
	ListByUserIDFunc   func(ctx context.Context, userID string) ([]connection.Connection, error)
	SetStatusFunc      func(ctx context.Context, id int64, status string, message *string) error
}

func (m *MockConnectionRepo) Upsert(ctx context.Context, params connection.UpsertParams) (*connection.Connection, error) {
	return nil, nil
}

func (m *MockConnectionRepo) GetByExternalID(ctx context.Context, externalID string) (*connection.Connection, error) {
	return nil, nil
}

func (m *MockConnectionRepo) GetByIDForUser(ctx context.Context, id int64, userID string) (*connection.Connection, error) {
	if m.GetByIDForUserFunc != nil {
		return m.GetByIDForUserFunc(ctx, id, userID)
	}
	return nil, nil
}

func (m *MockConnectionRepo) ListByUserID(ctx context.Context, userID string) ([]connection.Connection, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockConnectionRepo) ListActiveByUserID(ctx context.Context, userID string) ([]connection.Connection, error) {
	return nil, nil
}

func (m *MockConnectionRepo) ListUserIDsWithActive(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *MockConnectionRepo) SetStatus(ctx context.Context, id int64, status string, message *string) error {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status, message)
	}
	return nil
}

func (m *MockConnectionRepo) UpdateLastSync(ctx context.Context, id int64, syncedAt time.Time) error {
	return nil
}

// MockAccountRepo implements bankaccount.Repository for testing
type MockAccountRepo struct {
	ListActiveByUserIDFunc func(ctx context.Context, userID string) ([]bankaccount.BankAccount, error)
	TotalBalanceFunc       func(ctx context.Context, userID, currency string) (float64, error)
}

func (m *MockAccountRepo) Upsert(ctx context.Context, params bankaccount.UpsertParams) (*bankaccount.BankAccount, error) {
	return nil, nil
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int64) (*bankaccount.BankAccount, error) {
	return nil, nil
}

func (m *MockAccountRepo) GetByIDForUser(ctx context.Context, id int64, userID string) (*bankaccount.BankAccount, error) {
	return nil, nil
}

func (m *MockAccountRepo) ListByConnectionID(ctx context.Context, connectionID int64) ([]bankaccount.BankAccount, error) {
	return nil, nil
}

func (m *MockAccountRepo) ListActiveByUserID(ctx context.Context, userID string) ([]bankaccount.BankAccount, error) {
	if m.ListActiveByUserIDFunc != nil {
		return m.ListActiveByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockAccountRepo) DeactivateByConnectionID(ctx context.Context, connectionID int64) error {
	return nil
}

func (m *MockAccountRepo) TotalBalance(ctx context.Context, userID, currency string) (float64, error) {
	if m.TotalBalanceFunc != nil {
		return m.TotalBalanceFunc(ctx, userID, currency)
	}
	return 0, nil
}

// MockTransactionRepo implements transaction.Repository for testing
type MockTransactionRepo struct {
	ListByUserIDFunc func(ctx context.Context, userID string, from, to *time.Time) ([]transaction.Transaction, error)
}

func (m *MockTransactionRepo) Insert(ctx context.Context, params transaction.InsertParams) (bool, error) {
	return true, nil
}

func (m *MockTransactionRepo) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	return false, nil
}

func (m *MockTransactionRepo) LatestBankDate(ctx context.Context, bankAccountID int64) (*time.Time, error) {
	return nil, nil
}

func (m *MockTransactionRepo) ListByUserID(ctx context.Context, userID string, from, to *time.Time) ([]transaction.Transaction, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID, from, to)
	}
	return nil, nil
}

func (m *MockTransactionRepo) ListByAccountID(ctx context.Context, bankAccountID int64) ([]transaction.Transaction, error) {
	return nil, nil
}

func newTestHandler(client *MockClient, connRepo *MockConnectionRepo, accRepo *MockAccountRepo, txRepo *MockTransactionRepo) *BankingHandler {
	svc := banking.NewService(client, connRepo, accRepo, txRepo, "DK", []string{"nordea_dk", "lunar_dk"})
	return NewBankingHandler(svc)
}

func withUser(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestHandleConnect(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		userID     string
		wantStatus int
	}{
		{
			name:       "success",
			body:       `{"return_url":"https://app.example/done"}`,
			userID:     "user_1",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing return URL",
			body:       `{}`,
			userID:     "user_1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "provider off the whitelist",
			body:       `{"return_url":"https://app.example/done","provider_code":"chase_us"}`,
			userID:     "user_1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unauthorized without identity",
			body:       `{"return_url":"https://app.example/done"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockClient{
				CreateConnectSessionFunc: func(ctx context.Context, customerID, returnURL, countryCode string, providerCodes []string) (string, error) {
					return "https://connect.example/session", nil
				},
			}
			handler := newTestHandler(client, &MockConnectionRepo{}, &MockAccountRepo{}, &MockTransactionRepo{})

			req := httptest.NewRequest(http.MethodPost, "/api/banking/connect", bytes.NewBufferString(tt.body))
			if tt.userID != "" {
				req = withUser(req, tt.userID)
			}
			rec := httptest.NewRecorder()

			handler.HandleConnect(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				var resp ConnectResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.ConnectURL != "https://connect.example/session" {
					t.Errorf("connect_url = %q", resp.ConnectURL)
				}
			}
		})
	}
}

func TestHandleListAccounts_EmptyIsNotNull(t *testing.T) {
	handler := newTestHandler(&MockClient{}, &MockConnectionRepo{}, &MockAccountRepo{}, &MockTransactionRepo{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/banking/accounts", nil), "user_1")
	rec := httptest.NewRecorder()

	handler.HandleListAccounts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestHandleBalance(t *testing.T) {
	accRepo := &MockAccountRepo{
		TotalBalanceFunc: func(ctx context.Context, userID, currency string) (float64, error) {
			if currency != "DKK" {
				t.Errorf("currency = %q, want DKK default", currency)
			}
			return 1234.56, nil
		},
	}
	handler := newTestHandler(&MockClient{}, &MockConnectionRepo{}, accRepo, &MockTransactionRepo{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/banking/balance", nil), "user_1")
	rec := httptest.NewRecorder()

	handler.HandleBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp BalanceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1234.56 || resp.Currency != "DKK" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleBalance_InvalidCurrency(t *testing.T) {
	handler := newTestHandler(&MockClient{}, &MockConnectionRepo{}, &MockAccountRepo{}, &MockTransactionRepo{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/banking/balance?currency=XX", nil), "user_1")
	rec := httptest.NewRecorder()

	handler.HandleBalance(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleConnectionByID_Disconnect(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		handler := newTestHandler(&MockClient{}, &MockConnectionRepo{}, &MockAccountRepo{}, &MockTransactionRepo{})

		req := withUser(httptest.NewRequest(http.MethodDelete, "/api/banking/connections/7", nil), "user_1")
		req.SetPathValue("id", "7")
		rec := httptest.NewRecorder()

		handler.HandleConnectionByID(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		connRepo := &MockConnectionRepo{
			GetByIDForUserFunc: func(ctx context.Context, id int64, userID string) (*connection.Connection, error) {
				return &connection.Connection{ID: id, UserID: userID, ExternalID: "se_conn_1", Status: connection.StatusActive}, nil
			},
		}
		handler := newTestHandler(&MockClient{}, connRepo, &MockAccountRepo{}, &MockTransactionRepo{})

		req := withUser(httptest.NewRequest(http.MethodDelete, "/api/banking/connections/7", nil), "user_1")
		req.SetPathValue("id", "7")
		rec := httptest.NewRecorder()

		handler.HandleConnectionByID(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})
}

func TestHandleListTransactions_DateFilter(t *testing.T) {
	var gotFrom, gotTo *time.Time
	txRepo := &MockTransactionRepo{
		ListByUserIDFunc: func(ctx context.Context, userID string, from, to *time.Time) ([]transaction.Transaction, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}
	handler := newTestHandler(&MockClient{}, &MockConnectionRepo{}, &MockAccountRepo{}, txRepo)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/banking/transactions?from=2024-01-01&to=2024-01-31", nil), "user_1")
	rec := httptest.NewRecorder()

	handler.HandleListTransactions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotFrom == nil || gotFrom.Format("2006-01-02") != "2024-01-01" {
		t.Errorf("from = %v", gotFrom)
	}
	if gotTo == nil || gotTo.Format("2006-01-02") != "2024-01-31" {
		t.Errorf("to = %v", gotTo)
	}
}

func TestHandleListTransactions_BadDate(t *testing.T) {
	handler := newTestHandler(&MockClient{}, &MockConnectionRepo{}, &MockAccountRepo{}, &MockTransactionRepo{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/banking/transactions?from=January", nil), "user_1")
	rec := httptest.NewRecorder()

	handler.HandleListTransactions(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

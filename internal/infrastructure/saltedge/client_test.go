package saltedge

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	testAppID  = "test-app-id"
	testSecret = "test-secret"
)

func expectedSignature(t *testing.T, timestamp, nonce, method, endpoint string, body []byte) string {
	t.Helper()
	payloadHash := ""
	if len(body) > 0 {
		sum := sha256.Sum256(body)
		payloadHash = base64.StdEncoding.EncodeToString(sum[:])
	}
	stringToSign := timestamp + "|" + nonce + "|" + method + "|" + endpoint + "|" + payloadHash
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestClient_SigningHeaders(t *testing.T) {
	var gotReq *http.Request
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"connect_url": "https://connect.example/abc", "expires_at": "2024-06-01T00:00:00Z"}})
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	url, err := client.CreateConnectSession(context.Background(), "user_1", "https://app.example/callback", "DK", []string{"nordea_dk"})
	if err != nil {
		t.Fatalf("CreateConnectSession() failed: %v", err)
	}
	if url != "https://connect.example/abc" {
		t.Errorf("connect URL = %q", url)
	}

	if got := gotReq.Header.Get("App-id"); got != testAppID {
		t.Errorf("App-id header = %q, want %q", got, testAppID)
	}
	timestamp := gotReq.Header.Get("Timestamp")
	if timestamp == "" {
		t.Error("Timestamp header missing")
	}
	nonce := gotReq.Header.Get("Nonce")
	if nonce == "" {
		t.Error("Nonce header missing")
	}

	want := expectedSignature(t, timestamp, nonce, http.MethodPost, "/connect_sessions", gotBody)
	if got := gotReq.Header.Get("Signature"); got != want {
		t.Errorf("Signature = %q, want %q", got, want)
	}

	// Request body carries the documented shape
	var body connectSessionRequest
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("failed to unmarshal sent body: %v", err)
	}
	if body.Data.CustomerID != "user_1" {
		t.Errorf("customer_id = %q, want user_1", body.Data.CustomerID)
	}
	if body.Data.CountryCode != "DK" {
		t.Errorf("country_code = %q, want DK", body.Data.CountryCode)
	}
	if len(body.Data.ProviderCodes) != 1 || body.Data.ProviderCodes[0] != "nordea_dk" {
		t.Errorf("provider_codes = %v", body.Data.ProviderCodes)
	}
}

func TestClient_SignatureEmptyBodySegment(t *testing.T) {
	var gotReq *http.Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	if _, err := client.GetAccounts(context.Background(), "conn_1"); err != nil {
		t.Fatalf("GetAccounts() failed: %v", err)
	}

	timestamp := gotReq.Header.Get("Timestamp")
	nonce := gotReq.Header.Get("Nonce")

	// GET has no body: the hash segment of the signed string is empty
	want := expectedSignature(t, timestamp, nonce, http.MethodGet, "/accounts?connection_id=conn_1", nil)
	if got := gotReq.Header.Get("Signature"); got != want {
		t.Errorf("Signature = %q, want %q", got, want)
	}
}

func TestClient_NonceFreshPerRequest(t *testing.T) {
	var nonces []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonces = append(nonces, r.Header.Get("Nonce"))
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	client.GetAccounts(context.Background(), "conn_1")
	client.GetAccounts(context.Background(), "conn_1")

	if len(nonces) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(nonces))
	}
	if nonces[0] == nonces[1] {
		t.Errorf("nonce reused across requests: %q", nonces[0])
	}
}

func TestClient_GetConnection_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"class": "ConnectionNotFound", "message": "Connection not found"}})
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	conn, err := client.GetConnection(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetConnection() on 404 should not error, got: %v", err)
	}
	if conn != nil {
		t.Errorf("GetConnection() on 404 = %+v, want nil", conn)
	}
}

func TestClient_GetConnection_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/connections/conn_1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"id":                 "conn_1",
			"provider_name":      "Nordea",
			"provider_code":      "nordea_dk",
			"status":             "active",
			"consent_expires_at": "2025-01-01T00:00:00Z",
		}})
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	conn, err := client.GetConnection(context.Background(), "conn_1")
	if err != nil {
		t.Fatalf("GetConnection() failed: %v", err)
	}
	if conn.Status != "active" {
		t.Errorf("Status = %q, want active", conn.Status)
	}
	expiry, err := conn.GetConsentExpiresAt()
	if err != nil {
		t.Fatalf("GetConsentExpiresAt() failed: %v", err)
	}
	if expiry == nil || expiry.Year() != 2025 {
		t.Errorf("consent expiry = %v", expiry)
	}
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	_, err := client.GetAccounts(context.Background(), "conn_1")
	if err == nil {
		t.Fatal("GetAccounts() expected error for 502, got nil")
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T, want *UpstreamError", err)
	}
	if ue.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", ue.StatusCode)
	}
}

func TestClient_GetTransactions_DateWindow(t *testing.T) {
	var gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{"data": []any{
			map[string]any{"id": "tx_1", "amount": -42.50, "currency_code": "DKK", "made_on": "2024-01-10"},
		}})
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	from := time.Date(2024, 1, 9, 15, 30, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	txs, err := client.GetTransactions(context.Background(), "acc_1", &from, &to)
	if err != nil {
		t.Fatalf("GetTransactions() failed: %v", err)
	}

	want := "account_id=acc_1&from_date=2024-01-09&to_date=2024-01-31"
	if gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}

	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	madeOn, err := txs[0].GetMadeOn()
	if err != nil {
		t.Fatalf("GetMadeOn() failed: %v", err)
	}
	if madeOn.Format("2006-01-02") != "2024-01-10" {
		t.Errorf("made_on = %v", madeOn)
	}
}

func TestClient_GetTransactions_NoBounds(t *testing.T) {
	var gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	if _, err := client.GetTransactions(context.Background(), "acc_1", nil, nil); err != nil {
		t.Fatalf("GetTransactions() failed: %v", err)
	}
	if gotQuery != "account_id=acc_1" {
		t.Errorf("query = %q, want account_id=acc_1", gotQuery)
	}
}

func TestClient_RemoveConnection_BestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	if ok := client.RemoveConnection(context.Background(), "conn_1"); ok {
		t.Error("RemoveConnection() on 500 = true, want false")
	}
}

func TestClient_RemoveConnection_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %q, want DELETE", r.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"removed": true}})
	}))
	defer srv.Close()

	client := NewClient(testAppID, testSecret, srv.URL)

	if ok := client.RemoveConnection(context.Background(), "conn_1"); !ok {
		t.Error("RemoveConnection() = false, want true")
	}
}

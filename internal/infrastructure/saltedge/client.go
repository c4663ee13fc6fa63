// Package saltedge implements the signed-request client for the Salt Edge
// open-banking aggregation API.
package saltedge

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 180 * time.Second // large transaction fetches can be slow

// UpstreamError is returned for any non-success response from the aggregator.
// Callers decide retry policy; the client never retries internally.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("salt edge %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client handles communication with the Salt Edge API
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	secret     string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Salt Edge API client
func NewClient(appID, secret, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
		appID:   appID,
		secret:  secret,
	}
}

// CreateConnectSession requests a hosted consent-flow URL for the customer.
func (c *Client) CreateConnectSession(ctx context.Context, customerID, returnURL, countryCode string, providerCodes []string) (string, error) {
	reqBody := connectSessionRequest{
		Data: connectSessionData{
			CustomerID:    customerID,
			ReturnURL:     returnURL,
			CountryCode:   countryCode,
			ProviderCodes: providerCodes,
		},
	}

	var resp envelope[ConnectSession]
	if err := c.do(ctx, http.MethodPost, "/connect_sessions", reqBody, &resp); err != nil {
		return "", err
	}

	if resp.Data.ConnectURL == "" {
		return "", fmt.Errorf("salt edge connect session response missing connect_url")
	}

	return resp.Data.ConnectURL, nil
}

// GetConnection fetches the current state of one connection.
// A 404 is a legitimate "not found" and returns (nil, nil).
func (c *Client) GetConnection(ctx context.Context, connectionID string) (*Connection, error) {
	var resp envelope[Connection]
	err := c.do(ctx, http.MethodGet, "/connections/"+connectionID, nil, &resp)
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &resp.Data, nil
}

// GetConnections lists all connections belonging to a customer.
func (c *Client) GetConnections(ctx context.Context, customerID string) ([]Connection, error) {
	var resp envelope[[]Connection]
	if err := c.do(ctx, http.MethodGet, "/connections?customer_id="+customerID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetAccounts lists all accounts under a connection.
func (c *Client) GetAccounts(ctx context.Context, connectionID string) ([]Account, error) {
	var resp envelope[[]Account]
	if err := c.do(ctx, http.MethodGet, "/accounts?connection_id="+connectionID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetTransactions lists posted transactions for an account. Bounds are
// inclusive; a nil bound means no bound on that side.
func (c *Client) GetTransactions(ctx context.Context, accountID string, fromDate, toDate *time.Time) ([]Transaction, error) {
	endpoint := "/transactions?account_id=" + accountID
	if fromDate != nil {
		endpoint += "&from_date=" + fromDate.Format("2006-01-02")
	}
	if toDate != nil {
		endpoint += "&to_date=" + toDate.Format("2006-01-02")
	}

	var resp envelope[[]Transaction]
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// RefreshConnection asks the aggregator to refresh a connection.
// Best-effort: returns false instead of an error on failure.
func (c *Client) RefreshConnection(ctx context.Context, connectionID string) bool {
	err := c.do(ctx, http.MethodPut, "/connections/"+connectionID+"/refresh", struct{}{}, nil)
	if err != nil {
		log.Printf("Salt Edge: failed to refresh connection %s: %v", connectionID, err)
		return false
	}
	return true
}

// RemoveConnection revokes a connection at the aggregator.
// Best-effort: returns false instead of an error so callers can proceed
// with local cleanup regardless.
func (c *Client) RemoveConnection(ctx context.Context, connectionID string) bool {
	err := c.do(ctx, http.MethodDelete, "/connections/"+connectionID, nil, nil)
	if err != nil {
		log.Printf("Salt Edge: failed to remove connection %s: %v", connectionID, err)
		return false
	}
	return true
}

// do executes one signed request. endpoint is the path+query relative to the
// base URL and is exactly the string covered by the signature.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Timestamp and nonce are single-request values; headers are built fresh
	// on each request object, never cached on the client.
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	nonce := uuid.New().String()
	req.Header.Set("App-id", c.appID)
	req.Header.Set("Timestamp", timestamp)
	req.Header.Set("Nonce", nonce)
	req.Header.Set("Signature", c.sign(timestamp, nonce, method, endpoint, payload))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: method + " " + endpoint, StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Class + " - " + errResp.Error.Message
		}
		log.Printf("Salt Edge API error: %s %s: status %d - %s", method, endpoint, resp.StatusCode, msg)
		return &UpstreamError{Op: method + " " + endpoint, StatusCode: resp.StatusCode, Body: msg}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// sign computes the request signature:
// base64(HMAC-SHA256(secret, "{timestamp}|{nonce}|{method}|{endpoint}|{base64(sha256(body))}")).
// The body hash segment is the empty string when there is no body.
func (c *Client) sign(timestamp, nonce, method, endpoint string, payload []byte) string {
	payloadHash := ""
	if payload != nil {
		sum := sha256.Sum256(payload)
		payloadHash = base64.StdEncoding.EncodeToString(sum[:])
	}

	stringToSign := timestamp + "|" + nonce + "|" + method + "|" + endpoint + "|" + payloadHash

	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

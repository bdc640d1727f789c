package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TestClient drives the service's HTTP API for smoke testing.
type TestClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *TestClient) makeRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (c *TestClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// TestPing hits the liveness probe.
func (c *TestClient) TestPing(ctx context.Context) error {
	resp, err := c.makeRequest(ctx, http.MethodGet, "/-/healthy", nil)
	if err != nil {
		return err
	}
	return c.parseResponse(resp, nil)
}

type accountInfoResult struct {
	AccountID string `json:"account_id"`
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	Connected bool   `json:"connected"`
	Pending   int64  `json:"pending"`
}

// TestGetAccount resolves an account's pooled handle.
func (c *TestClient) TestGetAccount(ctx context.Context, accountID string) (*accountInfoResult, error) {
	resp, err := c.makeRequest(ctx, http.MethodGet, "/api/v1/accounts/"+accountID, nil)
	if err != nil {
		return nil, err
	}
	var info accountInfoResult
	if err := c.parseResponse(resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

type signResult struct {
	TxBlob string `json:"tx_blob"`
	Hash   string `json:"hash"`
}

// TestSignTransaction signs a transaction through the remote custody flow.
// This blocks until the custody service approves and releases the signature.
func (c *TestClient) TestSignTransaction(ctx context.Context, accountID string, tx map[string]any, autofill bool) (*signResult, error) {
	payload := map[string]any{
		"transaction": tx,
		"note":        "smoke test",
		"autofill":    autofill,
	}

	resp, err := c.makeRequest(ctx, http.MethodPost, "/api/v1/accounts/"+accountID+"/sign", payload)
	if err != nil {
		return nil, err
	}
	var signed signResult
	if err := c.parseResponse(resp, &signed); err != nil {
		return nil, err
	}
	if signed.TxBlob == "" || signed.Hash == "" {
		return nil, fmt.Errorf("sign response is missing tx_blob or hash")
	}
	return &signed, nil
}

type poolMetricsResult struct {
	Total           int64           `json:"total"`
	InUse           int64           `json:"in_use"`
	Idle            int64           `json:"idle"`
	InUsePerAccount map[string]bool `json:"in_use_per_account"`
}

// TestGetPoolMetrics fetches the pool state snapshot.
func (c *TestClient) TestGetPoolMetrics(ctx context.Context) (*poolMetricsResult, error) {
	resp, err := c.makeRequest(ctx, http.MethodGet, "/api/v1/pool/metrics", nil)
	if err != nil {
		return nil, err
	}
	var metrics poolMetricsResult
	if err := c.parseResponse(resp, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultSubmitPollInterval = 2 * time.Second
	defaultRequestTimeout     = 15 * time.Second
)

// RPCClient talks JSON-RPC to a ledger node over HTTP.
type RPCClient struct {
	url        string
	httpClient *http.Client
	codec      Codec
	connected  atomic.Bool

	// SubmitPollInterval is how often SubmitAndWait re-checks a submitted
	// transaction. Zero means the default.
	SubmitPollInterval time.Duration
}

// NewRPCClient creates a client for the given JSON-RPC endpoint. httpClient
// may be nil, in which case a client with a sane timeout is used.
func NewRPCClient(url string, codec Codec, httpClient *http.Client) *RPCClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &RPCClient{
		url:        url,
		httpClient: httpClient,
		codec:      codec,
	}
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	Result map[string]any `json:"result"`
}

func (c *RPCClient) call(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	reqBody := rpcRequest{Method: method}
	if params != nil {
		reqBody.Params = []any{params}
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build rpc request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "rpc call %s failed", method)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("rpc call %s returned status %d", method, resp.StatusCode)
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrapf(err, "failed to decode rpc response for %s", method)
	}
	if parsed.Result == nil {
		return nil, errors.Errorf("rpc call %s returned no result", method)
	}
	if status, _ := parsed.Result["status"].(string); status == "error" {
		errCode, _ := parsed.Result["error"].(string)
		return nil, errors.Errorf("rpc call %s failed: %s", method, errCode)
	}

	return parsed.Result, nil
}

// Connect verifies the endpoint answers a ping and marks the client
// connected. The underlying HTTP transport is stateless, so this is a
// liveness check rather than a session handshake.
func (c *RPCClient) Connect(ctx context.Context) error {
	if _, err := c.call(ctx, "ping", nil); err != nil {
		return errors.Wrap(err, "ledger endpoint unreachable")
	}
	c.connected.Store(true)
	return nil
}

func (c *RPCClient) Disconnect(_ context.Context) error {
	c.connected.Store(false)
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *RPCClient) IsConnected() bool {
	return c.connected.Load()
}

// Autofill fills Sequence from account_info and Fee from the fee endpoint
// for any of those fields the caller left unset.
func (c *RPCClient) Autofill(ctx context.Context, tx Transaction) (Transaction, error) {
	out := tx.Clone()

	if _, ok := out["Sequence"]; !ok {
		account := out.Account()
		if account == "" {
			return nil, errors.New("cannot autofill sequence without an Account field")
		}
		result, err := c.call(ctx, "account_info", map[string]any{
			"account":      account,
			"ledger_index": "current",
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch account info")
		}
		data, _ := result["account_data"].(map[string]any)
		seq, ok := data["Sequence"].(float64)
		if !ok {
			return nil, errors.New("account_info response missing Sequence")
		}
		out["Sequence"] = uint32(seq)
	}

	if _, ok := out["Fee"]; !ok {
		result, err := c.call(ctx, "fee", nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch fee")
		}
		drops, _ := result["drops"].(map[string]any)
		baseFee, ok := drops["base_fee"].(string)
		if !ok {
			return nil, errors.New("fee response missing base_fee")
		}
		out["Fee"] = baseFee
	}

	return out, nil
}

// SubmitAndWait submits the blob, then polls the tx endpoint until the
// ledger reports it validated or ctx is cancelled.
func (c *RPCClient) SubmitAndWait(ctx context.Context, txBlob string) (*SubmitResult, error) {
	hash, err := c.codec.HashSigned(txBlob)
	if err != nil {
		return nil, errors.Wrap(err, "cannot hash signed blob")
	}

	result, err := c.call(ctx, "submit", map[string]any{"tx_blob": txBlob})
	if err != nil {
		return nil, errors.Wrap(err, "submit failed")
	}
	engineResult, _ := result["engine_result"].(string)

	log.Debug().
		Str("hash", hash).
		Str("engine_result", engineResult).
		Msg("Transaction submitted, waiting for validation")

	interval := c.SubmitPollInterval
	if interval <= 0 {
		interval = defaultSubmitPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "gave up waiting for validation")
		case <-ticker.C:
		}

		txResult, err := c.call(ctx, "tx", map[string]any{"transaction": hash})
		if err != nil {
			// The node may not know the transaction yet; keep polling.
			log.Debug().Err(err).Str("hash", hash).Msg("tx lookup failed, retrying")
			continue
		}

		validated, _ := txResult["validated"].(bool)
		if !validated {
			continue
		}
		meta, _ := txResult["meta"].(map[string]any)
		return &SubmitResult{
			Validated:    true,
			Hash:         hash,
			EngineResult: engineResult,
			Meta:         meta,
		}, nil
	}
}

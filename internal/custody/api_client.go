package custody

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	tokenLifetime      = 55 * time.Second
)

// APIClient implements Client against a custody REST API. Every request is
// authenticated with a short-lived RS256 JWT whose claims bind the request
// path and a hash of the body, plus the API key header.
type APIClient struct {
	baseURL    string
	apiKey     string
	signingKey *rsa.PrivateKey
	httpClient *http.Client
}

// NewAPIClient creates a custody API client. httpClient may be nil.
func NewAPIClient(baseURL, apiKey string, signingKey *rsa.PrivateKey, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &APIClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		signingKey: signingKey,
		httpClient: httpClient,
	}
}

type requestClaims struct {
	URI      string `json:"uri"`
	Nonce    string `json:"nonce"`
	BodyHash string `json:"bodyHash"`
	jwt.RegisteredClaims
}

func (c *APIClient) bearerToken(path string, body []byte) (string, error) {
	bodyHash := sha256.Sum256(body)
	now := time.Now()

	claims := requestClaims{
		URI:      path,
		Nonce:    uuid.NewString(),
		BodyHash: hex.EncodeToString(bodyHash[:]),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.apiKey,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign request token")
	}
	return token, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
	}

	token, err := c.bearerToken(path, payload)
	if err != nil {
		return err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "custody request %s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("custody request %s %s returned status %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "failed to decode custody response for %s", path)
		}
	}
	return nil
}

type createTransactionPayload struct {
	Operation       string         `json:"operation"`
	AssetID         string         `json:"assetId"`
	Source          sourceRef      `json:"source"`
	Note            string         `json:"note,omitempty"`
	ExtraParameters map[string]any `json:"extraParameters"`
}

type sourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (c *APIClient) CreateRawSigningRequest(ctx context.Context, req *RawSigningRequest) (*CreateResult, error) {
	payload := createTransactionPayload{
		Operation: "RAW",
		AssetID:   req.AssetID,
		Source:    sourceRef{Type: "VAULT_ACCOUNT", ID: req.SourceAccountID},
		Note:      req.Note,
		ExtraParameters: map[string]any{
			"rawMessageData": map[string]any{
				"messages": []map[string]any{{"content": req.Digest}},
			},
			// Remote side ignores this; kept so the audit trail shows what
			// the digest was computed from.
			"unsignedPayload": req.UnsignedPayload,
		},
	}

	var result CreateResult
	if err := c.do(ctx, http.MethodPost, "/v1/transactions", payload, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, errors.New("custody service returned no transaction id")
	}

	log.Debug().
		Str("custody_tx_id", result.ID).
		Str("asset_id", req.AssetID).
		Str("source_account_id", req.SourceAccountID).
		Msg("Created raw signing request")

	return &result, nil
}

func (c *APIClient) GetTransactionStatus(ctx context.Context, txID string) (*TransactionDetails, error) {
	var details TransactionDetails
	if err := c.do(ctx, http.MethodGet, "/v1/transactions/"+txID, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

type depositAddress struct {
	Address string `json:"address"`
}

type publicKeyInfo struct {
	PublicKey string `json:"publicKey"`
}

func (c *APIClient) FetchAccountAddressAndPublicKey(ctx context.Context, accountID, assetID string) (*AccountKey, error) {
	var addresses []depositAddress
	path := fmt.Sprintf("/v1/vault/accounts/%s/%s/addresses", accountID, assetID)
	if err := c.do(ctx, http.MethodGet, path, nil, &addresses); err != nil {
		return nil, err
	}
	if len(addresses) == 0 || addresses[0].Address == "" {
		return nil, errors.Errorf("account %s has no %s address", accountID, assetID)
	}

	var keyInfo publicKeyInfo
	path = fmt.Sprintf("/v1/vault/accounts/%s/%s/0/0/public_key_info?compressed=true", accountID, assetID)
	if err := c.do(ctx, http.MethodGet, path, nil, &keyInfo); err != nil {
		return nil, err
	}
	if keyInfo.PublicKey == "" {
		return nil, errors.Errorf("account %s has no %s public key", accountID, assetID)
	}

	return &AccountKey{
		Address:   addresses[0].Address,
		PublicKey: keyInfo.PublicKey,
	}, nil
}

package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
)

// PostSignTransactionPayload is the body of POST /api/v1/accounts/:accountId/sign.
type PostSignTransactionPayload struct {
	// Transaction is the unsigned transaction as keyed fields.
	Transaction map[string]any `json:"transaction"`
	// Note is forwarded to the custody service for its audit trail.
	Note string `json:"note,omitempty"`
	// Multisign is false/absent, true or "self" for self-signing, or an
	// explicit signer address.
	Multisign any `json:"multisign,omitempty"`
	// Autofill asks the service to fill sequence and fee before signing.
	Autofill bool `json:"autofill,omitempty"`
}

func (p *PostSignTransactionPayload) Validate(_ strfmt.Registry) error {
	if len(p.Transaction) == 0 {
		return errors.Required("transaction", "body", nil)
	}
	return nil
}

// SignTransactionResponse is the signed result returned to callers.
type SignTransactionResponse struct {
	TxBlob *string `json:"tx_blob"`
	Hash   *string `json:"hash"`
}

func (r *SignTransactionResponse) Validate(_ strfmt.Registry) error {
	if r.TxBlob == nil || *r.TxBlob == "" {
		return errors.Required("tx_blob", "response", nil)
	}
	if r.Hash == nil || *r.Hash == "" {
		return errors.Required("hash", "response", nil)
	}
	return nil
}

// PostSubmitTransactionPayload is the body of POST /api/v1/accounts/:accountId/submit.
type PostSubmitTransactionPayload struct {
	// TxBlob is a signed transaction blob as produced by the sign endpoint.
	TxBlob string `json:"tx_blob"`
}

func (p *PostSubmitTransactionPayload) Validate(_ strfmt.Registry) error {
	if p.TxBlob == "" {
		return errors.Required("tx_blob", "body", nil)
	}
	return nil
}

// SubmitTransactionResponse is the ledger's verdict on a submitted blob.
type SubmitTransactionResponse struct {
	Validated    *bool          `json:"validated"`
	Hash         string         `json:"hash,omitempty"`
	EngineResult string         `json:"engine_result,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
}

func (r *SubmitTransactionResponse) Validate(_ strfmt.Registry) error {
	if r.Validated == nil {
		return errors.Required("validated", "response", nil)
	}
	return nil
}

// AccountInfoResponse describes an account's pooled handle.
type AccountInfoResponse struct {
	AccountID *string `json:"account_id"`
	Address   *string `json:"address"`
	PublicKey *string `json:"public_key"`
	Connected bool    `json:"connected"`
	Pending   int64   `json:"pending"`
}

func (r *AccountInfoResponse) Validate(_ strfmt.Registry) error {
	if r.AccountID == nil || r.Address == nil {
		return errors.Required("account_id", "response", nil)
	}
	return nil
}

// PoolMetricsResponse is the pool state snapshot returned to callers.
type PoolMetricsResponse struct {
	Total           *int64          `json:"total"`
	InUse           *int64          `json:"in_use"`
	Idle            *int64          `json:"idle"`
	InUsePerAccount map[string]bool `json:"in_use_per_account"`
}

func (r *PoolMetricsResponse) Validate(_ strfmt.Registry) error {
	if r.Total == nil || r.InUse == nil || r.Idle == nil {
		return errors.Required("total", "response", nil)
	}
	return nil
}

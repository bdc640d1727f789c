package dispatcher

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kashguard/go-xrpl-custody/internal/ledger"
	"github.com/kashguard/go-xrpl-custody/internal/pool"
	"github.com/kashguard/go-xrpl-custody/internal/signing"
)

// Built-in operation names.
const (
	OpSign        = "sign"
	OpAutofill    = "autofill"
	OpSubmit      = "submit"
	OpAccountInfo = "account_info"
)

// RegisterDefaults wires the standard operations for the given asset.
func (d *Dispatcher) RegisterDefaults(assetID string) {
	d.Register(OpSign, signOperation(assetID))
	d.Register(OpAutofill, autofillOperation())
	d.Register(OpSubmit, submitOperation())
	d.Register(OpAccountInfo, accountInfoOperation())
}

// AccountInfo describes a pooled account handle.
type AccountInfo struct {
	AccountID string `json:"account_id"`
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	Connected bool   `json:"connected"`
	Pending   int    `json:"pending"`
}

// signOperation runs the full remote signing flow on the handle's engine.
// Params: "transaction" (required), "note", "multisign" (false, true/"self",
// or an explicit signer address).
func signOperation(assetID string) Operation {
	return func(ctx context.Context, h *pool.Handle, params map[string]any) (any, error) {
		rawTx, ok := params["transaction"].(map[string]any)
		if !ok {
			return nil, errors.New("sign requires a transaction parameter")
		}
		note, _ := params["note"].(string)

		multisign, err := parseMultisign(params["multisign"])
		if err != nil {
			return nil, err
		}

		return h.Engine.SignAsync(ctx, ledger.Transaction(rawTx), h.PublicKey, assetID, h.AccountID, note, multisign)
	}
}

// autofillOperation fills network-derived transaction fields via the
// handle's ledger client.
func autofillOperation() Operation {
	return func(ctx context.Context, h *pool.Handle, params map[string]any) (any, error) {
		rawTx, ok := params["transaction"].(map[string]any)
		if !ok {
			return nil, errors.New("autofill requires a transaction parameter")
		}
		return h.Ledger.Autofill(ctx, ledger.Transaction(rawTx))
	}
}

// submitOperation submits a signed blob and waits for validation.
func submitOperation() Operation {
	return func(ctx context.Context, h *pool.Handle, params map[string]any) (any, error) {
		blob, ok := params["tx_blob"].(string)
		if !ok || blob == "" {
			return nil, errors.New("submit requires a tx_blob parameter")
		}
		return h.Ledger.SubmitAndWait(ctx, blob)
	}
}

// accountInfoOperation reports the resolved identity and state of the
// account's pooled handle.
func accountInfoOperation() Operation {
	return func(_ context.Context, h *pool.Handle, _ map[string]any) (any, error) {
		return &AccountInfo{
			AccountID: h.AccountID,
			Address:   h.Address,
			PublicKey: h.PublicKey,
			Connected: h.Ledger.IsConnected(),
			Pending:   h.Engine.PendingCount(),
		}, nil
	}
}

// parseMultisign maps the wire-facing multisign parameter onto its three
// variants: disabled, self, or an explicit signer address.
func parseMultisign(v any) (signing.MultisignTarget, error) {
	switch t := v.(type) {
	case nil:
		return signing.MultisignOff(), nil
	case bool:
		if t {
			return signing.MultisignSelf(), nil
		}
		return signing.MultisignOff(), nil
	case string:
		switch t {
		case "", "false", "off":
			return signing.MultisignOff(), nil
		case "true", "self":
			return signing.MultisignSelf(), nil
		default:
			if !ledger.IsClassicAddress(t) {
				return signing.MultisignOff(), errors.Errorf("multisign target %q is not a valid address", t)
			}
			return signing.MultisignFor(t), nil
		}
	default:
		return signing.MultisignOff(), errors.Errorf("unsupported multisign parameter type %T", v)
	}
}

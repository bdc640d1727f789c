package ledger

// Well-known transaction field names.
const (
	FieldAccount       = "Account"
	FieldSigningPubKey = "SigningPubKey"
	FieldTxnSignature  = "TxnSignature"
	FieldSigners       = "Signers"
)

// Transaction is an XRPL transaction as a keyed record, not yet serialized.
// Field names follow the ledger's canonical capitalization.
type Transaction map[string]any

// Signer is a single entry of a transaction's signer list.
type Signer struct {
	Account       string `json:"Account"`
	SigningPubKey string `json:"SigningPubKey"`
	TxnSignature  string `json:"TxnSignature"`
}

// SignerEntry is the wrapper object the ledger expects around each signer.
type SignerEntry struct {
	Signer Signer `json:"Signer"`
}

// HasSignature reports whether the transaction carries a non-empty TxnSignature.
func (tx Transaction) HasSignature() bool {
	v, ok := tx[FieldTxnSignature]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return !ok || s != ""
}

// HasSigners reports whether the transaction carries a non-empty signer list.
func (tx Transaction) HasSigners() bool {
	v, ok := tx[FieldSigners]
	if !ok || v == nil {
		return false
	}
	switch l := v.(type) {
	case []any:
		return len(l) > 0
	case []SignerEntry:
		return len(l) > 0
	default:
		return true
	}
}

// Account returns the transaction's source account, or "" if unset.
func (tx Transaction) Account() string {
	s, _ := tx[FieldAccount].(string)
	return s
}

// Clone returns a shallow copy. Nested values are shared; callers only
// add or remove top-level fields.
func (tx Transaction) Clone() Transaction {
	out := make(Transaction, len(tx))
	for k, v := range tx {
		out[k] = v
	}
	return out
}

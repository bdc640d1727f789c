package signing

import "strings"

// Opaque token prefixes distinguishing the two placeholder token kinds.
const (
	placeholderBlobPrefix = "prepared:"
	placeholderHashPrefix = "placeholder:"
)

// Placeholder is the short-lived handle returned by Prepare. TxBlob and Hash
// are opaque prefix-tagged tokens embedding the pending id, not real
// transaction bytes; CompleteSigning consumes the placeholder exactly once.
type Placeholder struct {
	ID     string `json:"id"`
	TxBlob string `json:"tx_blob"`
	Hash   string `json:"hash"`
}

// pendingID extracts the embedded id from the blob token, or "" if the token
// is not placeholder-shaped.
func (p *Placeholder) pendingID() string {
	if p == nil || !strings.HasPrefix(p.TxBlob, placeholderBlobPrefix) {
		return ""
	}
	return strings.TrimPrefix(p.TxBlob, placeholderBlobPrefix)
}

// SignedTransaction is the final reassembled form: the signed wire blob and
// its canonical transaction hash.
type SignedTransaction struct {
	TxBlob string `json:"tx_blob"`
	Hash   string `json:"hash"`
}

type multisignMode int

const (
	multisignOff multisignMode = iota
	multisignSelf
	multisignAddress
)

// MultisignTarget selects which account's signer-list entry receives the
// produced signature: disabled, the bound account itself, or an explicit
// address.
type MultisignTarget struct {
	mode    multisignMode
	address string
}

func MultisignOff() MultisignTarget {
	return MultisignTarget{mode: multisignOff}
}

func MultisignSelf() MultisignTarget {
	return MultisignTarget{mode: multisignSelf}
}

func MultisignFor(address string) MultisignTarget {
	return MultisignTarget{mode: multisignAddress, address: address}
}

// Enabled reports whether a signer-list entry should be produced at all.
func (m MultisignTarget) Enabled() bool {
	return m.mode != multisignOff
}

// Resolve returns the signer account address, substituting self for the
// self-signing variant.
func (m MultisignTarget) Resolve(self string) string {
	if m.mode == multisignAddress {
		return m.address
	}
	return self
}

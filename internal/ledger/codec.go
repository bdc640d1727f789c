package ledger

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Hashing prefixes, per the ledger's signing rules: unsigned single-signer
// payloads are hashed under "STX\0", fully signed transactions under "TXN\0".
var (
	prefixUnsigned = []byte{0x53, 0x54, 0x58, 0x00}
	prefixSigned   = []byte{0x54, 0x58, 0x4E, 0x00}
)

// Codec serializes transactions to their wire blob and computes canonical
// hashes. The binary field codec is pluggable; JSONCodec below is the
// default implementation.
type Codec interface {
	// Encode serializes a transaction to an uppercase hex blob.
	Encode(tx Transaction) (string, error)
	// Decode parses a blob produced by Encode back into a transaction.
	Decode(blob string) (Transaction, error)
	// Hash computes the signing digest of an unsigned blob (STX prefix).
	Hash(blob string) (string, error)
	// HashSigned computes the canonical transaction hash of a signed blob
	// (TXN prefix).
	HashSigned(blob string) (string, error)
}

// JSONCodec encodes transactions as canonical JSON (sorted keys, no
// insignificant whitespace) and hashes with SHA-512Half. It preserves the
// ledger's hashing prefixes so digests and transaction hashes are shaped
// like the real thing.
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Encode(tx Transaction) (string, error) {
	if tx == nil {
		return "", errors.New("cannot encode nil transaction")
	}
	// encoding/json sorts map keys, which is all the canonicalization the
	// JSON representation needs.
	raw, err := json.Marshal(tx)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal transaction")
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}

func (c *JSONCodec) Decode(blob string) (Transaction, error) {
	raw, err := hex.DecodeString(blob)
	if err != nil {
		return nil, errors.Wrap(err, "blob is not valid hex")
	}
	var tx Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, errors.Wrap(err, "blob does not decode to a transaction")
	}
	return tx, nil
}

func (c *JSONCodec) Hash(blob string) (string, error) {
	return hashWithPrefix(prefixUnsigned, blob)
}

func (c *JSONCodec) HashSigned(blob string) (string, error) {
	return hashWithPrefix(prefixSigned, blob)
}

// hashWithPrefix computes SHA-512Half (the first 32 bytes of SHA-512) over
// prefix||blob-bytes and returns it as uppercase hex.
func hashWithPrefix(prefix []byte, blob string) (string, error) {
	raw, err := hex.DecodeString(blob)
	if err != nil {
		return "", errors.Wrap(err, "blob is not valid hex")
	}
	h := sha512.New()
	h.Write(prefix)
	h.Write(raw)
	sum := h.Sum(nil)
	return strings.ToUpper(hex.EncodeToString(sum[:32])), nil
}

// sortedFieldNames returns a transaction's top-level field names in the
// order Encode serializes them. Used by tests and diagnostics.
func sortedFieldNames(tx Transaction) []string {
	names := make([]string, 0, len(tx))
	for k := range tx {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

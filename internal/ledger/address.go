package ledger

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required by the ledger's address format
)

// The ledger's base58 dictionary differs from Bitcoin's.
var xrplAlphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

// accountIDPrefix is the version byte of a classic account address.
const accountIDPrefix = 0x00

// DeriveClassicAddress computes the classic account address for a hex-encoded
// 33-byte compressed public key: base58check(0x00 || RIPEMD160(SHA256(pubkey)))
// over the ledger's alphabet.
func DeriveClassicAddress(pubKeyHex string) (string, error) {
	pubKey, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return "", errors.Wrap(err, "public key is not valid hex")
	}
	if len(pubKey) != 33 {
		return "", errors.Errorf("expected 33 byte compressed public key, got %d bytes", len(pubKey))
	}

	sha := sha256.Sum256(pubKey)
	ripemd := ripemd160.New()
	if _, err := ripemd.Write(sha[:]); err != nil {
		return "", errors.Wrap(err, "failed to hash public key")
	}
	accountID := ripemd.Sum(nil)

	payload := append([]byte{accountIDPrefix}, accountID...)

	firstSHA := sha256.Sum256(payload)
	secondSHA := sha256.Sum256(firstSHA[:])
	checksum := secondSHA[:4]

	return base58.EncodeAlphabet(append(payload, checksum...), xrplAlphabet), nil
}

// IsClassicAddress reports whether s decodes as a checksummed classic address.
func IsClassicAddress(s string) bool {
	raw, err := base58.DecodeAlphabet(s, xrplAlphabet)
	if err != nil || len(raw) != 25 || raw[0] != accountIDPrefix {
		return false
	}
	payload, checksum := raw[:21], raw[21:]
	firstSHA := sha256.Sum256(payload)
	secondSHA := sha256.Sum256(firstSHA[:])
	for i := 0; i < 4; i++ {
		if checksum[i] != secondSHA[i] {
			return false
		}
	}
	return true
}

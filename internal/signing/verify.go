package signing

import (
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kashguard/go-xrpl-custody/internal/custody"
)

// VerifyComponents checks raw (r, s) components against a compressed
// secp256k1 public key and a hex digest.
func VerifyComponents(rHex, sHex, digestHex, publicKeyHex string) (bool, error) {
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return false, errors.Wrap(err, "digest is not valid hex")
	}
	pubKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, errors.Wrap(err, "public key is not valid hex")
	}
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false, errors.Wrap(err, "failed to parse public key")
	}

	rBytes, err := hex.DecodeString(rHex)
	if err != nil {
		return false, errors.Wrap(err, "signature component r is not valid hex")
	}
	sBytes, err := hex.DecodeString(sHex)
	if err != nil {
		return false, errors.Wrap(err, "signature component s is not valid hex")
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(rBytes); overflow {
		return false, errors.New("signature component r overflows the curve order")
	}
	if overflow := s.SetByteSlice(sBytes); overflow {
		return false, errors.New("signature component s overflows the curve order")
	}

	sig := secpecdsa.NewSignature(&r, &s)
	return sig.Verify(digest, pubKey), nil
}

// verifyComponents sanity-checks a custody signature against the signing key.
// The custody service already verified before releasing the signature, so a
// local mismatch is logged rather than failing the operation.
func (e *Engine) verifyComponents(sig custody.SignatureComponents, digestHex, publicKeyHex string) {
	valid, err := VerifyComponents(sig.R, sig.S, digestHex, publicKeyHex)
	if err != nil {
		log.Warn().Err(err).
			Str("account", e.account).
			Msg("Could not verify custody signature locally, continuing")
		return
	}
	if !valid {
		log.Warn().
			Str("account", e.account).
			Msg("Custody signature did not verify against account public key, continuing")
	}
}

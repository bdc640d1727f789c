package signing

import (
	"encoding/hex"
	"strings"
)

// ASN.1 tags used by the signature encoding.
const (
	derTagInteger  = 0x02
	derTagSequence = 0x30
)

// EncodeDER converts raw hex-encoded ECDSA signature components into a DER
// SEQUENCE of two INTEGERs, uppercase hex encoded. Components are reduced to
// their minimal big-endian representation, with a zero byte prefixed whenever
// the leading byte has its high bit set so the value cannot be read as
// negative. Pure and deterministic.
func EncodeDER(rHex, sHex string) (string, error) {
	r, err := hex.DecodeString(rHex)
	if err != nil {
		return "", wrapError(err, CodeDEREncodingFailed, "signature component r is not valid hex")
	}
	s, err := hex.DecodeString(sHex)
	if err != nil {
		return "", wrapError(err, CodeDEREncodingFailed, "signature component s is not valid hex")
	}

	rInt := derInteger(r)
	sInt := derInteger(s)

	body := append(rInt, sInt...)
	out := append([]byte{derTagSequence}, derLength(len(body))...)
	out = append(out, body...)

	return strings.ToUpper(hex.EncodeToString(out)), nil
}

// derInteger emits tag, length and the minimal two's-complement-safe value
// bytes for one component.
func derInteger(value []byte) []byte {
	value = trimComponent(value)
	out := append([]byte{derTagInteger}, derLength(len(value))...)
	return append(out, value...)
}

// trimComponent strips redundant leading zero bytes, then restores a single
// zero byte if the remaining leading byte would set the sign bit. A zero
// value collapses to one zero byte.
func trimComponent(b []byte) []byte {
	i := 0
	for i < len(b)-1 && b[i] == 0x00 {
		i++
	}
	b = b[i:]
	if len(b) == 0 {
		return []byte{0x00}
	}
	if b[0]&0x80 != 0 {
		return append([]byte{0x00}, b...)
	}
	return b
}

// derLength encodes a length in short form below 0x80, otherwise in long
// form: 0x80|count followed by count big-endian length bytes.
func derLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var bytes []byte
	for v := n; v > 0; v >>= 8 {
		bytes = append([]byte{byte(v)}, bytes...)
	}
	return append([]byte{0x80 | byte(len(bytes))}, bytes...)
}

package custody

import (
	"crypto/rsa"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// LoadRSAPrivateKey reads a PEM-encoded RSA private key used for signing
// custody API request tokens.
func LoadRSAPrivateKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("custody private key path is not configured")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read custody private key %s", path)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse custody private key %s", path)
	}
	return key, nil
}

package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrKeyImport = errors.New("push: invalid VAPID private key")
	ErrSigning   = errors.New("push: token signing failed")
)

const tokenLifetime = 12 * time.Hour

// Credentials is the process-wide VAPID key pair plus the contact used as
// the sub claim. Loaded once from config and passed explicitly; there is
// no package-level key state.
type Credentials struct {
	PublicKey  string // base64url, uncompressed P-256 point (65 bytes)
	PrivateKey string // base64url, P-256 scalar (32 bytes)
	Contact    string // e-mail address, sent as "mailto:<contact>"
}

func (c Credentials) Configured() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// SignToken issues the VAPID authorization JWT for one push-service origin:
// ES256 over base64url(header).base64url(payload), raw R||S signature.
// Tokens are scoped to the audience and expire in 12 hours; one is issued
// per send.
func SignToken(audience string, creds Credentials) (string, error) {
	key, err := importPrivateKey(creds.PrivateKey)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"aud": audience,
		"exp": time.Now().Add(tokenLifetime).Unix(),
		"sub": "mailto:" + creds.Contact,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return token, nil
}

func importPrivateKey(encoded string) (*ecdsa.PrivateKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, got %d", ErrKeyImport, len(raw))
	}
	curve := elliptic.P256()
	d := new(big.Int).SetBytes(raw)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, fmt.Errorf("%w: scalar out of range", ErrKeyImport)
	}
	key := &ecdsa.PrivateKey{D: d}
	key.PublicKey.Curve = curve
	key.PublicKey.X, key.PublicKey.Y = curve.ScalarBaseMult(raw)
	return key, nil
}

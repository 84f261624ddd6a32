package ghost

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL is how long a signed Admin API token stays valid.
const tokenTTL = 5 * time.Minute

// adminSigner mints short-lived Admin API tokens from an "id:secret" key.
type adminSigner struct {
	keyID  string
	secret []byte
	now    func() time.Time
}

func newAdminSigner(adminKey string) (*adminSigner, error) {
	id, hexSecret, ok := strings.Cut(adminKey, ":")
	if !ok || id == "" || hexSecret == "" {
		return nil, fmt.Errorf("admin key must have the form id:secret")
	}
	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		return nil, fmt.Errorf("decoding admin key secret: %w", err)
	}
	return &adminSigner{keyID: id, secret: secret, now: time.Now}, nil
}

// sign returns a fresh HS256 token scoped to the /admin/ audience.
func (s *adminSigner) sign() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		Audience:  jwt.ClaimStrings{"/admin/"},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = s.keyID
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing admin token: %w", err)
	}
	return signed, nil
}

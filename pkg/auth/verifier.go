package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrNoCredentials = errors.New("auth: no credentials configured")
	ErrInvalidToken  = errors.New("auth: invalid token")
)

// APIKeySubject is the subject reported for requests authenticated by a
// static API key.
const APIKeySubject = "api-key"

// Verifier accepts either one of a fixed set of API keys or an HS256 JWT
// signed with a shared secret.
type Verifier struct {
	apiKeys   [][]byte
	jwtSecret []byte
}

// NewVerifier builds a Verifier. Empty keys are ignored.
func NewVerifier(apiKeys []string, jwtSecret string) *Verifier {
	v := &Verifier{}
	for _, k := range apiKeys {
		if k != "" {
			v.apiKeys = append(v.apiKeys, []byte(k))
		}
	}
	if jwtSecret != "" {
		v.jwtSecret = []byte(jwtSecret)
	}
	return v
}

// Enabled reports whether the verifier has anything to check against.
func (v *Verifier) Enabled() bool {
	return len(v.apiKeys) > 0 || len(v.jwtSecret) > 0
}

// Verify returns the token's subject. API keys are compared in constant time
// before the token is tried as a JWT.
func (v *Verifier) Verify(token string) (string, error) {
	if !v.Enabled() {
		return "", ErrNoCredentials
	}

	// every key is compared so timing does not reveal which one matched
	matched := 0
	for _, k := range v.apiKeys {
		matched |= subtle.ConstantTimeCompare(k, []byte(token))
	}
	if matched == 1 {
		return APIKeySubject, nil
	}

	if len(v.jwtSecret) == 0 {
		return "", ErrInvalidToken
	}
	return v.verifyJWT(token)
}

func (v *Verifier) verifyJWT(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "jwt", nil
	}
	return claims.Subject, nil
}

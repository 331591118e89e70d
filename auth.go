package flowcore

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RequestValidator checks an incoming discover/invoke request before
// Server dispatches it. The real identity-key scheme is a detail of
// the runtime deployment; this validator covers the common shape (a
// bearer JWT signed with a shared key) and is pluggable via
// Server.WithValidator so deployments needing something else can
// supply their own.
type RequestValidator interface {
	Validate(r *http.Request) error
}

// JWTValidator checks the Authorization: Bearer header against a
// fixed HMAC key, the "identity key" concept referenced only by
// interface in the transport contract.
type JWTValidator struct {
	key []byte
}

// NewJWTValidator builds a JWTValidator keyed on key.
func NewJWTValidator(key []byte) *JWTValidator {
	return &JWTValidator{key: key}
}

func (v *JWTValidator) Validate(r *http.Request) error {
	auth := r.Header.Get("authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return fmt.Errorf("auth: missing bearer token")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if !parsed.Valid {
		return fmt.Errorf("auth: invalid token")
	}
	return nil
}

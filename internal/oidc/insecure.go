package oidc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tuma-app/tuma/backend/pkg/middleware"
)

type payloadToken struct {
	payload []byte
}

func (t *payloadToken) Claims(v interface{}) error { return json.Unmarshal(t.payload, v) }

// InsecureVerifier reads the payload of a JWT without checking its signature, issuer or
// expiry. Only for local and integration runs with ALLOW_INSECURE_TOKEN=true.
type InsecureVerifier struct{}

func NewInsecureVerifier() *InsecureVerifier { return &InsecureVerifier{} }

func (v *InsecureVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, errors.New("invalid token format")
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, errors.New("token payload is not JSON")
	}
	return &payloadToken{payload: data}, nil
}

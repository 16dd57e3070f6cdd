package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestInsecureVerifier_IgnoresSignatureAndExpiry(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "dev@example.com",
		"name":  "Dev",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("whatever-the-issuer-used"))
	require.NoError(t, err)

	tok, err := NewInsecureVerifier().Verify(context.Background(), raw)
	require.NoError(t, err)
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "dev@example.com", claims.Email)
	require.Equal(t, "Dev", claims.Name)
}

func TestInsecureVerifier_UnsignedToken(t *testing.T) {
	raw := seg([]byte(`{"alg":"none","typ":"JWT"}`)) + "." + seg([]byte(`{"email":"anon@example.com"}`)) + "."
	tok, err := NewInsecureVerifier().Verify(context.Background(), raw)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "anon@example.com", claims["email"])
}

func TestInsecureVerifier_RejectsMalformed(t *testing.T) {
	header := seg([]byte(`{"alg":"HS256","typ":"JWT"}`))
	for name, raw := range map[string]string{
		"empty":            "",
		"single segment":   "garbage",
		"two segments":     header + "." + seg([]byte(`{"email":"a@b"}`)),
		"bad base64":       header + ".!!!.sig",
		"payload not json": header + "." + seg([]byte("not json")) + ".sig",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewInsecureVerifier().Verify(context.Background(), raw)
			require.Error(t, err)
		})
	}
}

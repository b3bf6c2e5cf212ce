package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-at-least-32-chars-long", time.Hour, "tappay")

	token, expiresAt, err := svc.Generate(42, "sess-abc")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "sess-abc", claims.SessionID)
}

func TestJWTTokenService_WrongSecret(t *testing.T) {
	issuer := NewJWTTokenService("secret-one-at-least-32-chars-long!", time.Hour, "tappay")
	verifier := NewJWTTokenService("secret-two-at-least-32-chars-long!", time.Hour, "tappay")

	token, _, err := issuer.Generate(42, "sess-abc")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret-at-least-32-chars-long", -time.Minute, "tappay")

	token, _, err := svc.Generate(42, "sess-abc")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Garbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-at-least-32-chars-long", time.Hour, "tappay")

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suryansh1j/vaidya/config"
	"github.com/suryansh1j/vaidya/internal/domain"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:          "test-secret-key-that-is-long-enough",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "vaidya-api",
	}
}

func testClaims() *domain.Claims {
	return &domain.Claims{
		UserID:   uuid.New(),
		Username: "drpatel",
		Email:    "patel@example.com",
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testJWTConfig())
	in := testClaims()

	pair, err := m.GenerateTokenPair(in)
	require.NoError(t, err)

	assert.Equal(t, "bearer", pair.TokenType)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), pair.ExpiresAt, 5*time.Second)

	out, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.Username, out.Username)
	assert.Equal(t, in.Email, out.Email)

	out, err = m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
}

func TestJWTManager_TokenTypeMismatch(t *testing.T) {
	m := NewJWTManager(testJWTConfig())

	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	_, err = m.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenTTL = -time.Hour
	m := NewJWTManager(cfg)

	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTManager_TamperedToken(t *testing.T) {
	m := NewJWTManager(testJWTConfig())

	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = m.ValidateAccessToken(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	issuer := NewJWTManager(testJWTConfig())

	other := testJWTConfig()
	other.Secret = "a-completely-different-signing-secret"
	verifier := NewJWTManager(other)

	pair, err := issuer.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTManager_WrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Issuer = "someone-else"
	issuer := NewJWTManager(cfg)

	verifier := NewJWTManager(testJWTConfig())

	pair, err := issuer.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTManager_GarbageInput(t *testing.T) {
	m := NewJWTManager(testJWTConfig())

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token: %q", token)
	}
}

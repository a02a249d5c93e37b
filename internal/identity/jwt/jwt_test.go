package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/bissquit/stockroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func newTestAuthenticator(now time.Time) *Authenticator {
	a := NewAuthenticator(Config{
		SecretKey:     testSecret,
		TokenDuration: 24 * time.Hour,
		Issuer:        "stockroom-test",
	})
	a.now = func() time.Time { return now }
	return a
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "6f1c2a34-5b67-4c89-a0b1-c2d3e4f5a6b7",
		Email: "manager@example.com",
		Role:  domain.RoleManager,
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestAuthenticator(issuedAt)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Verify just before expiry.
	verifier := newTestAuthenticator(issuedAt.Add(24*time.Hour - time.Minute))
	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a34-5b67-4c89-a0b1-c2d3e4f5a6b7", claims.UserID)
	assert.Equal(t, "manager@example.com", claims.Email)
	assert.Equal(t, domain.RoleManager, claims.Role)
}

func TestIssue_DifferentInstantsDifferentTokens(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first, err := newTestAuthenticator(issuedAt).Issue(testUser())
	require.NoError(t, err)
	second, err := newTestAuthenticator(issuedAt.Add(time.Second)).Issue(testUser())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// Both remain independently valid.
	verifier := newTestAuthenticator(issuedAt.Add(time.Hour))
	_, err = verifier.Verify(first)
	assert.NoError(t, err)
	_, err = verifier.Verify(second)
	assert.NoError(t, err)
}

func TestVerify_Expired(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := newTestAuthenticator(issuedAt).Issue(testUser())
	require.NoError(t, err)

	verifier := newTestAuthenticator(issuedAt.Add(25 * time.Hour))
	claims, err := verifier.Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_Missing(t *testing.T) {
	verifier := newTestAuthenticator(time.Now())
	claims, err := verifier.Verify("")
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestVerify_Malformed(t *testing.T) {
	verifier := newTestAuthenticator(time.Now())
	for _, tok := range []string{"garbage", "a.b", "....", "Bearer abc"} {
		claims, err := verifier.Verify(tok)
		assert.Nil(t, claims, tok)
		assert.ErrorIs(t, err, ErrTokenMalformed, tok)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := newTestAuthenticator(issuedAt).Issue(testUser())
	require.NoError(t, err)

	other := NewAuthenticator(Config{
		SecretKey:     "a-different-secret",
		TokenDuration: 24 * time.Hour,
	})
	other.now = func() time.Time { return issuedAt.Add(time.Hour) }

	claims, err := other.Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestVerify_TamperedToken(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := newTestAuthenticator(issuedAt)
	token, err := auth.Issue(testUser())
	require.NoError(t, err)

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	claims, err := auth.Verify(tampered)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

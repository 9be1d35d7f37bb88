package pkg

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", 7*24*time.Hour, time.Hour, 15*24*time.Hour, "example.com")
}

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer := newIssuer()

	token, err := issuer.Issue(42, KindUser)
	require.NoError(t, err)

	claims, err := issuer.Parse(token, KindUser)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.ID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, KindUser, claims.Kind)
}

func TestTokenIssuer_KindMismatch(t *testing.T) {
	issuer := newIssuer()

	pair, err := issuer.IssuePair(7)
	require.NoError(t, err)

	_, err = issuer.Parse(pair.RefreshToken, KindUser)
	assert.ErrorIs(t, err, ErrTokenKind)

	_, err = issuer.Parse(pair.AccessToken, KindAdmin)
	assert.ErrorIs(t, err, ErrTokenKind)

	claims, err := issuer.Parse(pair.RefreshToken, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.ID)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := newIssuer()
	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.Issue(1, KindAdmin)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token, KindAdmin)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, err := newIssuer().Issue(1, KindUser)
	require.NoError(t, err)

	other := NewTokenIssuer("another-secret", time.Hour, time.Hour, time.Hour, "example.com")
	_, err = other.Parse(token, KindUser)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = other.Parse("not-a-jwt", KindUser)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenIssuer_Cookie(t *testing.T) {
	issuer := newIssuer()

	cookie := issuer.Cookie("abc", KindUser)
	assert.True(t, strings.HasPrefix(cookie, "Authorization=abc;"))
	assert.Contains(t, cookie, "Max-Age=604800")
	assert.Contains(t, cookie, "Domain=example.com")
	assert.Contains(t, cookie, "HttpOnly")

	assert.Contains(t, issuer.Cookie("abc", KindAdmin), "Max-Age=3600")
	assert.Contains(t, issuer.ClearCookie(), "Max-Age=0")
}

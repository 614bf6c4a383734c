package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSRFTokenIssuedOncePerSession(t *testing.T) {
	m := NewCSRFManager("rahasia")
	sess := &Session{ID: "sesi-1"}

	token, err := m.EnsureToken(sess)
	require.NoError(t, err)
	require.Contains(t, token, ".")

	again, err := m.EnsureToken(sess)
	require.NoError(t, err)
	require.Equal(t, token, again)

	sess.ID = "sesi-2"
	require.NoError(t, m.VerifyToken(sess, token))
}

func TestCSRFVerifyRejectsForeignTokens(t *testing.T) {
	m := NewCSRFManager("rahasia")
	sess := &Session{ID: "sesi-1"}
	token, err := m.EnsureToken(sess)
	require.NoError(t, err)

	require.ErrorIs(t, m.VerifyToken(sess, ""), ErrCSRFTokenMissing)
	require.ErrorIs(t, m.VerifyToken(nil, token), ErrCSRFTokenMissing)
	require.ErrorIs(t, m.VerifyToken(&Session{ID: "kosong"}, token), ErrCSRFTokenMissing)

	nonce, _, _ := strings.Cut(token, ".")
	require.ErrorIs(t, m.VerifyToken(sess, nonce+".palsu"), ErrCSRFTokenMismatch)

	other, err := NewCSRFManager("lain").EnsureToken(&Session{ID: "x"})
	require.NoError(t, err)
	require.ErrorIs(t, m.VerifyToken(sess, other), ErrCSRFTokenMismatch)
}

func TestCSRFReissuesUnsignedStoredToken(t *testing.T) {
	m := NewCSRFManager("rahasia")
	sess := &Session{ID: "sesi-1"}
	sess.Set(CSRFSessionKey, "warisan")

	token, err := m.EnsureToken(sess)
	require.NoError(t, err)
	require.NotEqual(t, "warisan", token)
	require.NoError(t, m.VerifyToken(sess, token))
}

func TestEnsureTokenNeedsSession(t *testing.T) {
	_, err := NewCSRFManager("rahasia").EnsureToken(nil)
	require.ErrorIs(t, err, ErrSessionMissing)
}

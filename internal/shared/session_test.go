package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "paneldesa_session", time.Hour, false), mr
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	sm, mr := newTestSessions(t)

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.False(t, sess.Authenticated())

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	require.Empty(t, rec.Result().Cookies())
	require.Empty(t, mr.Keys())

	sess.SetUser("sekdes@desa.local", "admin")
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sess.ID, cookies[0].Value)
	require.True(t, mr.Exists("paneldesa:session:"+sess.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, sess.ID, loaded.ID)
	require.Equal(t, "sekdes@desa.local", loaded.User())
	require.Equal(t, "admin", loaded.Role())

	oldID := loaded.ID
	require.NoError(t, sm.Renew(ctx, loaded))
	require.NotEqual(t, oldID, loaded.ID)
	require.False(t, mr.Exists("paneldesa:session:"+oldID))

	sm.Destroy(loaded)
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, loaded))
	require.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	sm, _ := newTestSessions(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "paneldesa_session", Value: "palsu"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, "palsu", sess.ID)
	require.False(t, sess.Authenticated())
}

package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "consorcia_session", "secreto-de-prueba", time.Hour, false)
}

func TestSessionIdentityRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)

	_, ok := sess.Identity()
	assert.False(t, ok, "una sesion anonima no tiene identidad")

	sess.SetIdentity(42, 7, string(RolAdmin))
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	cookie := cookies[0]
	assert.Equal(t, "consorcia_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req2)
	require.NoError(t, err)

	identity, ok := loaded.Identity()
	require.True(t, ok)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, int64(7), identity.EdificioID)
	assert.Equal(t, RolAdmin, identity.Rol)
}

func TestSessionDestroyClearsState(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetIdentity(42, 7, string(RolComite))

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	cookie := rec.Result().Cookies()[0]

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req2)
	require.NoError(t, err)
	sm.Destroy(loaded)

	rec2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec2, req2, loaded))
	expired := rec2.Result().Cookies()[0]
	assert.Equal(t, -1, expired.MaxAge)

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.AddCookie(cookie)
	fresh, err := sm.Load(ctx, req3)
	require.NoError(t, err)
	_, ok := fresh.Identity()
	assert.False(t, ok, "la sesion destruida no conserva identidad")
}

func TestSessionIdentityRejectsUnknownRole(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetIdentity(42, 7, "SUPERUSUARIO")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(rec.Result().Cookies()[0])
	loaded, err := sm.Load(ctx, req2)
	require.NoError(t, err)

	_, ok := loaded.Identity()
	assert.False(t, ok)
}

func TestRolPermissions(t *testing.T) {
	assert.True(t, RolAdmin.CanWrite())
	assert.True(t, RolComite.CanWrite())
	assert.False(t, RolInquilino.CanWrite())
	assert.False(t, Rol("OTRO").Valid())
}

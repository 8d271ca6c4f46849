package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/consorcia/consorcia/internal/auth"
	"github.com/consorcia/consorcia/internal/shared"
	_ "github.com/consorcia/consorcia/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
	deleted  []string
}

func (r *stubRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if r.user != nil && r.user.Email == email {
		u := *r.user
		return &u, nil
	}
	return nil, shared.ErrNotFound
}

func (r *stubRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	if r.sessions == nil {
		r.sessions = make(map[string]int64)
	}
	r.sessions[id] = userID
	return nil
}

func (r *stubRepo) DeleteSession(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

type fixture struct {
	repo    *stubRepo
	manager *shared.SessionManager
	router  chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("secreto-123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &stubRepo{user: &auth.User{
		ID:           42,
		EdificioID:   7,
		Email:        "admin@consorcia.test",
		Nombre:       "Ana",
		PasswordHash: string(hash),
		Rol:          shared.RolAdmin,
		Activo:       true,
	}}

	manager := shared.NewSessionManager(client, "consorcia_session", "secreto-de-prueba", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), manager)

	router := chi.NewRouter()
	router.Use(sessionMiddleware(manager))
	handler.MountRoutes(router)

	return &fixture{repo: repo, manager: manager, router: router}
}

// commitWriter flushes the session before the first byte of the response so
// the Set-Cookie header lands ahead of the body, like the app stack does.
type commitWriter struct {
	http.ResponseWriter
	sess          *shared.Session
	manager       *shared.SessionManager
	ctx           context.Context
	req           *http.Request
	headerWritten bool
}

func (w *commitWriter) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.headerWritten = true
		_ = w.manager.Commit(w.ctx, w.ResponseWriter, w.req, w.sess)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// sessionMiddleware mirrors the app stack: load, wrap, serve.
func sessionMiddleware(sm *shared.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sm.Load(r.Context(), r)
			if err != nil {
				http.Error(w, "session", http.StatusInternalServerError)
				return
			}
			ctx := shared.ContextWithSession(r.Context(), sess)
			if id, ok := sess.Identity(); ok {
				ctx = shared.ContextWithIdentity(ctx, id)
			}
			req := r.WithContext(ctx)
			wrapped := &commitWriter{ResponseWriter: w, sess: sess, manager: sm, ctx: ctx, req: req}
			next.ServeHTTP(wrapped, req)
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"admin@consorcia.test","password":"secreto-123"}`))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"ok":true`)
	assert.Contains(t, rec.Body.String(), "Bienvenido Ana")
	assert.Contains(t, rec.Body.String(), `"edificioId":7`)

	require.Len(t, fx.repo.sessions, 1, "la sesion queda registrada para auditoria")
	require.NotEmpty(t, rec.Result().Cookies())
	assert.Equal(t, "consorcia_session", rec.Result().Cookies()[0].Name)
}

func TestLoginWrongPassword(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"admin@consorcia.test","password":"equivocada1"}`))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "credenciales invalidas")
	assert.Empty(t, fx.repo.sessions)
}

func TestLoginUnknownUserSameError(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"nadie@consorcia.test","password":"secreto-123"}`))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "credenciales invalidas")
}

func TestLoginInactiveUser(t *testing.T) {
	fx := newFixture(t)
	fx.repo.user.Activo = false

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"admin@consorcia.test","password":"secreto-123"}`))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	fx := newFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"bad email", `{"email":"no-es-email","password":"secreto-123"}`},
		{"short password", `{"email":"admin@consorcia.test","password":"corta"}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			fx.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	fx := newFixture(t)

	login := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"admin@consorcia.test","password":"secreto-123"}`))
	loginRec := httptest.NewRecorder()
	fx.router.ServeHTTP(loginRec, login)
	require.Equal(t, http.StatusOK, loginRec.Code)
	cookie := loginRec.Result().Cookies()[0]

	logout := httptest.NewRequest(http.MethodPost, "/logout", nil)
	logout.AddCookie(cookie)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, logout)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sesion cerrada")
	assert.Equal(t, []string{cookie.Value}, fx.repo.deleted)

	me := httptest.NewRequest(http.MethodGet, "/me", nil)
	me.AddCookie(cookie)
	meRec := httptest.NewRecorder()
	fx.router.ServeHTTP(meRec, me)
	assert.Equal(t, http.StatusUnauthorized, meRec.Code)
}

func TestMeReturnsIdentity(t *testing.T) {
	fx := newFixture(t)

	login := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"admin@consorcia.test","password":"secreto-123"}`))
	loginRec := httptest.NewRecorder()
	fx.router.ServeHTTP(loginRec, login)
	require.Equal(t, http.StatusOK, loginRec.Code)

	me := httptest.NewRequest(http.MethodGet, "/me", nil)
	me.AddCookie(loginRec.Result().Cookies()[0])
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, me)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":42`)
	assert.Contains(t, rec.Body.String(), `"rol":"ADMIN"`)
}

func TestMeAnonymous(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

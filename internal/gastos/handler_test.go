package gastos

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcia/consorcia/internal/edificios"
	"github.com/consorcia/consorcia/internal/shared"
)

func newTestRouter(t *testing.T, repo *memRepo) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, nil), edificios.Middleware{})

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &shared.Session{}
			sess.SetIdentity(42, 1, string(shared.RolAdmin))
			ctx := shared.ContextWithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	handler.MountRoutes(router)
	return router
}

func TestCreateAcceptsWireBody(t *testing.T) {
	repo := newTestRepo()
	router := newTestRouter(t, repo)

	body := `{"descripcion":"Reparacion bomba de agua","monto":12000,"categoria":"MANTENIMIENTO","proveedor":"Hidraulica Sur","fecha":"2025-12-05T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"descripcion":"Reparacion bomba de agua"`)
	assert.Contains(t, rec.Body.String(), `"proveedor":"Hidraulica Sur"`)
	assert.Contains(t, rec.Body.String(), `"fondo":"operativo"`)

	require.Len(t, repo.gastos, 1)
	gasto := repo.gastos[0]
	assert.Equal(t, "Reparacion bomba de agua", gasto.Descripcion)
	assert.Equal(t, "Hidraulica Sur", gasto.Proveedor)
	assert.Equal(t, FondoOperativo, gasto.Fondo)
	assert.True(t, gasto.Monto.Equal(decimal.NewFromInt(12000)))
}

func TestCreateRejectsMissingDescripcion(t *testing.T) {
	router := newTestRouter(t, newTestRepo())

	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"monto":12000,"categoria":"MANTENIMIENTO"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "descripcion requerida")
}

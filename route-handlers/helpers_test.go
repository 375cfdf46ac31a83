package routehandlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coreybb/recipes/auth"
	"github.com/coreybb/recipes/models"
	"github.com/coreybb/recipes/webutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var testUser = &models.User{ID: 10, Email: "test@example.com", Name: "Test", IsActive: true}

func newRequest(method, target, body string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, rdr)
	if body != "" {
		r.Header.Set(webutil.HeaderContentType, "application/json")
	}
	return r
}

func asUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(auth.WithUser(r.Context(), u))
}

func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func serve(h webutil.AppHandler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	webutil.MakeHandler(h)(rec, r)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

package routehandlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/coreybb/recipes/auth"
	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/models"
	"github.com/coreybb/recipes/webutil"
	"github.com/go-chi/chi/v5"
)

// currentUser returns the user the auth middleware attached to r.
func currentUser(r *http.Request) (*models.User, error) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, common.ErrUnauthorized
	}
	return u, nil
}

// idParam parses a positive integer URL parameter. Anything else cannot name
// a row, so it is reported as 404.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, webutil.ErrNotFound("")
	}
	return id, nil
}

// parseIDList parses a comma-separated list of ids such as "1,2,3".
// Empty items are skipped.
func parseIDList(field, raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, common.NewValidationError(field, "A valid integer is required.")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseFlag reads an integer query flag such as assigned_only=1.
func parseFlag(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, common.NewValidationError(name, "A valid integer is required.")
	}
	return n != 0, nil
}

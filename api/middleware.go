package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreybb/recipes/auth"
	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/models"
	"github.com/coreybb/recipes/webutil"
)

// TokenParser resolves a session token to a user id.
type TokenParser interface {
	Parse(token string) (int64, error)
}

// UserLookup loads the account a token was issued for.
type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// RequireAuth rejects requests without a valid "Token <t>" or "Bearer <t>"
// Authorization header and stores the authenticated user in the request
// context.
func RequireAuth(tokens TokenParser, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := tokenFromHeader(r.Header.Get(webutil.HeaderAuthorization))
			if !ok {
				webutil.WriteError(w, r, webutil.ErrUnauthorized(""))
				return
			}

			userID, err := tokens.Parse(raw)
			if err != nil {
				webutil.WriteError(w, r, err)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					webutil.WriteError(w, r, webutil.ErrUnauthorizedWrap("User inactive or deleted.", err))
					return
				}
				webutil.WriteError(w, r, err)
				return
			}
			if !user.IsActive {
				webutil.WriteError(w, r, webutil.ErrUnauthorized("User inactive or deleted."))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func tokenFromHeader(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package middleware

import (
	"context"
	"net/http"

	"github.com/hsuanlin/recipetalk/backend/internal/model/user"
	"github.com/hsuanlin/recipetalk/backend/pkg/utils"
)

type contextKey struct{ name string }

var userKey = contextKey{"user"}

// Identity resolves the authenticated account from the X-User-ID header
// against the profile store and injects it into the request context. The
// header stands in for the external identity provider's verified token;
// requests without a resolvable identity are rejected.
func Identity(users user.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-User-ID")
			if id == "" {
				utils.RespondError(w, http.StatusUnauthorized, "missing X-User-ID header")
				return
			}

			u, ok := users.FindByID(id)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "unknown user")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser extracts the resolved account from the context.
func CurrentUser(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey).(user.User)
	return u, ok
}

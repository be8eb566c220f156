package session

import (
	"context"
	"net/http"

	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/logging"
	"github.com/streamloft/gateway/internal/models"
)

// IdentityResolver exchanges a session token for the identity it belongs to.
type IdentityResolver interface {
	WhoAmI(ctx context.Context, token string) (models.User, error)
}

// Resolver turns the session cookie into a request-scoped identity. It runs
// once per request and never blocks the response: on any failure the request
// proceeds unauthenticated and the stale cookie is cleared.
type Resolver struct {
	Identities IdentityResolver
	Cookies    CookieStore
}

// Middleware wraps next with session resolution.
func (res Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := res.Cookies.Token(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()

		// An identity propagated from an earlier hop short-circuits the
		// remote call.
		if _, attached := UserFromContext(ctx); attached {
			next.ServeHTTP(w, r)
			return
		}

		user, err := res.Identities.WhoAmI(ctx, token)
		if err != nil {
			logger := logging.FromContext(ctx)
			switch faults.KindOf(err) {
			case faults.InvalidToken:
				logger.Info("session token rejected, clearing cookie")
			default:
				// Ambiguous failure: fail closed and treat the
				// credential as invalid.
				logger.Warn("identity resolution failed, clearing cookie", "error", err)
			}
			res.Cookies.Clear(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
	})
}

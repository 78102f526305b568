package auth

import (
	"net/http"

	"github.com/LotfiJL/Jelo/pkg/application/services/access"
	"go.uber.org/zap"
)

// DefaultRealm is announced in WWW-Authenticate challenges
const DefaultRealm = "jelo"

// BasicAuth returns middleware that requires HTTP Basic credentials accepted by verifier.
//
// Usage in routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(auth.BasicAuth(verifier, auth.DefaultRealm, logger))
//	    r.Get("/", h.index)
//	})
//
// Missing or rejected credentials get 401 with a challenge; verifier failures get 503.
func BasicAuth(verifier access.Verifier, realm string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if realm == "" {
		realm = DefaultRealm
	}
	challenge := `Basic realm="` + realm + `", charset="UTF-8"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", challenge)
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			allowed, err := verifier.Verify(r.Context(), username, password)
			if err != nil {
				logger.Error("credential check failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				http.Error(w, "Authentication unavailable", http.StatusServiceUnavailable)
				return
			}
			if !allowed {
				logger.Warn("request rejected: invalid credentials",
					zap.String("user", username),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				w.Header().Set("WWW-Authenticate", challenge)
				http.Error(w, "Invalid credentials", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/vehicletag/registration-node/internal/config"
	"github.com/vehicletag/registration-node/internal/core/domain"
	"github.com/vehicletag/registration-node/internal/providers"
)

// BasicAuthMiddleware protects the admin query endpoints with HTTP basic
// auth. The authenticated agent is installed into the request context, so
// downstream writes can attribute the attempt to a user.
func BasicAuthMiddleware(cfg *config.Configuration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !validCredentials(cfg.APIAuth, user, pass) {
				w.Header().Add("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
				writeError(r.Context(), w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := providers.WithUser(r.Context(), domain.User{ID: user, DisplayName: user})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

func validCredentials(auth config.HTTPBasicAuth, user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(auth.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(auth.Password)) == 1
	return userOK && passOK
}

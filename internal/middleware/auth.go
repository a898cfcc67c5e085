package middleware

import (
	"net/http"
	"strings"

	"github.com/thirtyapp/thirty/internal/api"
	"github.com/thirtyapp/thirty/internal/config"
	"github.com/thirtyapp/thirty/internal/ctxkeys"
	"github.com/thirtyapp/thirty/internal/service"
)

// AuthMiddleware resolves the bearer token and, when valid, adds the user
// and profile to the request context. Requests without a token continue
// unauthenticated; RequireAuth decides whether that matters.
func AuthMiddleware(authService *service.AuthService, userService *service.UserService, profileService *service.ProfileService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authService.VerifyJWT(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := userService.ByID(userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			// Never expose the hash downstream of auth.
			user.PasswordHash = ""

			profile, err := profileService.ByUserID(userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithProfile(ctx, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that did not authenticate.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			api.Error(w, http.StatusUnauthorized, api.CodeUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	}
}

// RequireAdmin rejects authenticated users whose email is not on the
// admin allowlist.
func RequireAdmin(cfg *config.Config, next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if !cfg.IsAdmin(user.Email) {
			api.Error(w, http.StatusForbidden, api.CodeForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

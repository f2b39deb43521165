package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/MrEthical07/authgate/jwt"
)

type sessionContextKey struct{}

// Session verifies the access token from the accessToken cookie or the
// Authorization bearer header and attaches its claims to the request
// context. Requests without a valid access token are rejected with 401.
func Session(manager *jwt.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessTokenFrom(r)
			if token == "" {
				reject(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := manager.ParseAccess(token)
			if err != nil {
				reject(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionClaims returns the verified access-token claims attached by
// [Session], or nil when the request did not pass through it.
func SessionClaims(ctx context.Context) *jwt.Claims {
	claims, _ := ctx.Value(sessionContextKey{}).(*jwt.Claims)
	return claims
}

func accessTokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

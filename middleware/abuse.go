package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	authgate "github.com/MrEthical07/authgate"
)

// AbuseGate applies the per-IP request budget to every request. Blocked IPs
// are rejected for as long as their block record is live; a request that
// crosses the budget is itself rejected and triggers the block.
func AbuseGate(guard *authgate.AbuseGuard) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			ctx := authgate.WithClientIP(r.Context(), ip)
			r = r.WithContext(ctx)

			blocked, until, err := guard.IsBlocked(ctx, ip)
			if err != nil {
				reject(w, http.StatusInternalServerError, "internal error")
				return
			}
			if blocked {
				w.Header().Set("Retry-After", until.UTC().Format(http.TimeFormat))
				reject(w, http.StatusTooManyRequests, "too many requests, try again later")
				return
			}

			if err := guard.RecordRequest(ctx, ip); err != nil {
				if errors.Is(err, authgate.ErrTooManyRequests) {
					reject(w, http.StatusTooManyRequests, "too many requests, try again later")
					return
				}
				reject(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP resolves the caller's address, preferring the first entry of
// X-Forwarded-For when a proxy added one.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

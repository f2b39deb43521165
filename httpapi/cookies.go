package httpapi

import (
	"net/http"
	"time"

	authgate "github.com/MrEthical07/authgate"
)

const (
	cookieAccessToken  = "accessToken"
	cookieRefreshToken = "refreshToken"
)

func (h *Handler) authCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.config.Cookie.Path,
		Domain:   h.config.Cookie.Domain,
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   h.config.Cookie.Secure,
		SameSite: h.config.Cookie.SameSite,
	}
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, pair authgate.TokenPair) {
	http.SetCookie(w, h.authCookie(cookieAccessToken, pair.AccessToken, h.config.AccessTTL))
	http.SetCookie(w, h.authCookie(cookieRefreshToken, pair.RefreshToken, h.config.RefreshTTL))
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{cookieAccessToken, cookieRefreshToken} {
		cookie := h.authCookie(name, "", 0)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

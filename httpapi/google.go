package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	authgate "github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/internal"
)

// GoogleConfig defines a public type used by authgate APIs.
//
// GoogleConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

const cookieOAuthState = "oauthState"

func (h *Handler) googleOAuth() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.config.Google.ClientID,
		ClientSecret: h.config.Google.ClientSecret,
		RedirectURL:  h.config.Google.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func (h *Handler) handleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state, err := internal.NewTempToken()
	if err != nil {
		respondError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieOAuthState,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   h.config.Cookie.Secure,
		// Lax, not Strict: the callback arrives as a cross-site navigation
		// from the provider and must still carry this cookie.
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.googleOAuth().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

type googleUserinfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(cookieOAuthState)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondError(w, authgate.ErrUnauthorized)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, authgate.ErrUnauthorized)
		return
	}

	conf := h.googleOAuth()
	token, err := conf.Exchange(r.Context(), code)
	if err != nil {
		respondError(w, authgate.ErrUnauthorized)
		return
	}

	resp, err := conf.Client(r.Context(), token).Get(googleUserinfoURL)
	if err != nil {
		respondError(w, authgate.ErrUnauthorized)
		return
	}
	defer resp.Body.Close()

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.Email == "" || !info.VerifiedEmail {
		respondError(w, authgate.ErrUnauthorized)
		return
	}

	result, err := h.engine.FederatedLogin(r.Context(), authgate.FederatedIdentity{
		Email:    info.Email,
		Username: info.Name,
		Provider: authgate.LoginGoogle,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	// The redirect crosses an origin boundary, so tokens travel in the
	// target URL instead of cookies.
	if base := strings.TrimRight(h.config.SSORedirectURLBase, "/"); base != "" {
		http.Redirect(w, r, base+"/"+result.AccessToken+"/"+result.RefreshToken, http.StatusFound)
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"user":         result.Account,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}, "logged in")
}

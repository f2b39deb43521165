package httpapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	authgate "github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/middleware"
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Cookie     authgate.CookieConfig
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// SSORedirectURLBase is the client URL federated logins redirect to,
	// with the minted token pair appended as path segments.
	SSORedirectURLBase string

	Google GoogleConfig
}

// Handler defines a public type used by authgate APIs.
//
// Handler instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Handler struct {
	engine   *authgate.Engine
	config   Config
	validate *validator.Validate
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(engine *authgate.Engine, cfg Config) *Handler {
	return &Handler{
		engine:   engine,
		config:   cfg,
		validate: validator.New(),
	}
}

// Router builds the full route table. The abuse gate fronts every route,
// including healthcheck; session routes additionally pass the access-token
// check.
func (h *Handler) Router() *mux.Router {
	root := mux.NewRouter()
	root.Use(middleware.AbuseGate(h.engine.Guard()))

	root.HandleFunc("/healthcheck", h.handleHealthcheck).Methods(http.MethodGet)

	api := root.PathPrefix("/api/v1/user").Subrouter()

	api.HandleFunc("/register", h.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/refresh-token", h.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/verify-email/{verificationToken}", h.handleVerifyEmail).Methods(http.MethodGet)
	api.HandleFunc("/resend-verify-email", h.handleResendVerification).Methods(http.MethodPost)
	api.HandleFunc("/forgot-password", h.handleForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/verify-otp", h.handleVerifyOTP).Methods(http.MethodPost)
	api.HandleFunc("/reset-password/{resetToken}", h.handleResetPassword).Methods(http.MethodPost)
	api.HandleFunc("/google", h.handleGoogleRedirect).Methods(http.MethodGet)
	api.HandleFunc("/google/callback", h.handleGoogleCallback).Methods(http.MethodGet)

	session := api.NewRoute().Subrouter()
	session.Use(middleware.Session(h.engine.Tokens()))
	session.HandleFunc("/logout", h.handleLogout).Methods(http.MethodGet)
	session.HandleFunc("/self", h.handleSelf).Methods(http.MethodGet)
	session.HandleFunc("/update-avatar", h.handleUpdateAvatar).Methods(http.MethodPatch)

	return root
}

func (h *Handler) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"}, "healthy")
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, h.validate, &req); err != nil {
		respondValidation(w, err)
		return
	}

	account, err := h.engine.Register(r.Context(), authgate.RegisterRequest{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     authgate.Role(req.Role),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusCreated, account, "account created, verification email sent")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, h.validate, &req); err != nil {
		respondValidation(w, err)
		return
	}

	result, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	h.setAuthCookies(w, authgate.TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
	respond(w, http.StatusOK, map[string]any{
		"user":         result.Account,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}, "logged in")
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(cookieRefreshToken); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		// Body is optional when the cookie is present, so decode errors on
		// an empty body are not validation failures here.
		_ = decode(r, h.validate, &req)
		token = req.RefreshToken
	}
	if token == "" {
		respondError(w, authgate.ErrRefreshInvalid)
		return
	}

	pair, err := h.engine.Refresh(r.Context(), token)
	if err != nil {
		h.clearAuthCookies(w)
		respondError(w, err)
		return
	}

	h.setAuthCookies(w, pair)
	respond(w, http.StatusOK, pair, "session refreshed")
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["verificationToken"]

	account, err := h.engine.VerifyEmail(r.Context(), token)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, account, "email verified")
}

func (h *Handler) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, h.validate, &req); err != nil {
		respondValidation(w, err)
		return
	}

	if err := h.engine.ResendVerification(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, nil, "verification email sent")
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, h.validate, &req); err != nil {
		respondValidation(w, err)
		return
	}

	if err := h.engine.ForgotPassword(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, nil, "password reset code sent")
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decode(r, h.validate, &req); err != nil {
		respondValidation(w, err)
		return
	}

	resetToken, err := h.engine.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]string{"resetToken": resetToken}, "otp verified")
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(r, h.validate, &req); err != nil {
		respondValidation(w, err)
		return
	}

	token := mux.Vars(r)["resetToken"]
	if err := h.engine.ResetPassword(r.Context(), token, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, nil, "password reset")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionClaims(r.Context())
	if claims == nil {
		respondError(w, authgate.ErrUnauthorized)
		return
	}

	if err := h.engine.Logout(r.Context(), claims.UID); err != nil {
		respondError(w, err)
		return
	}

	h.clearAuthCookies(w)
	respond(w, http.StatusOK, nil, "logged out")
}

func (h *Handler) handleSelf(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionClaims(r.Context())
	if claims == nil {
		respondError(w, authgate.ErrUnauthorized)
		return
	}

	account, err := h.engine.Self(r.Context(), claims.UID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, account, "current user")
}

const maxAvatarBytes = 8 << 20

func (h *Handler) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionClaims(r.Context())
	if claims == nil {
		respondError(w, authgate.ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		respondError(w, authgate.ErrAvatarMissing)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, authgate.ErrAvatarMissing)
		return
	}
	defer file.Close()

	account, err := h.engine.UpdateAvatar(
		r.Context(),
		claims.UID,
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, account, "avatar updated")
}

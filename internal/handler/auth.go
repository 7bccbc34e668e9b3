package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/auth"
)

// AdminCredentials is the configured username/password-hash pair for the
// primary admin login. There is no user table — the store has exactly one
// password admin plus an optional GitHub allowlist.
type AdminCredentials struct {
	Username     string
	PasswordHash string // bcrypt hash, from ADMIN_PASSWORD_HASH
}

// AuthHandler manages admin sign-in: password login and the GitHub OAuth
// flow. Both paths end the same way — a signed JWT, returned in the body
// for API clients and set as an HttpOnly cookie for the browser panel.
type AuthHandler struct {
	github    *auth.GitHubProvider // nil when OAuth is not configured
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	admin     AdminCredentials
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil; the OAuth
// routes then respond 404-equivalent errors.
func NewAuthHandler(
	github *auth.GitHubProvider,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	admin AdminCredentials,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:    github,
		tokens:    tokens,
		passwords: passwords,
		admin:     admin,
		logger:    logger,
	}
}

// LoginResponse carries the session token for API clients (the CLI sends it
// back as a Bearer header).
type LoginResponse struct {
	Token string `json:"token"`
}

// HandleLogin signs an admin in with username and password.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"username":"admin","password":"..."}
//
// Wrong username and wrong password produce the same 401 — no hints about
// which half was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if h.admin.Username == "" || h.admin.PasswordHash == "" {
		writeError(w, apperror.Unauthorized("password login is not configured"))
		return
	}

	if body.Username != h.admin.Username ||
		h.passwords.Verify(h.admin.PasswordHash, body.Password) != nil {
		h.logger.Warn("failed admin login", slog.String("username", body.Username))
		writeError(w, apperror.Unauthorized("invalid credentials"))
		return
	}

	token, err := h.tokens.Generate(h.admin.Username)
	if err != nil {
		h.logger.Error("token generation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	h.logger.Info("admin logged in", slog.String("username", body.Username))
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// The random state goes into a short-lived HttpOnly cookie; the callback
// verifies it to block CSRF on the flow.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.Unauthorized("GitHub login is not configured"))
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verify state, exchange the
// code, check the login against the admin allowlist, issue the session
// cookie, and bounce back to the admin panel.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.Unauthorized("GitHub login is not configured"))
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single-use
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		http.Redirect(w, r, "/admin.html?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	if !h.github.Allowed(ghUser.Login) {
		h.logger.Warn("oauth callback: login not on allowlist", slog.String("login", ghUser.Login))
		writeError(w, apperror.Unauthorized("this GitHub account is not an admin"))
		return
	}

	token, err := h.tokens.Generate(ghUser.Login)
	if err != nil {
		h.logger.Error("token generation failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)
	h.logger.Info("admin authenticated via GitHub", slog.String("login", ghUser.Login))
	http.Redirect(w, r, "/admin.html", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/auth/logout
//
// Stateless tokens can't be revoked server-side; logout just deletes the
// cookie so the browser stops sending it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// HandleMe returns the authenticated admin's login. Mounted behind
// RequireAdmin, so reaching it at all means the token was valid.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	login, _ := auth.AdminFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"login": login})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.AdminTokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // requires HTTPS
	})
}

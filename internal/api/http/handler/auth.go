package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/velora-beauty/velora-server/internal/api/http/httpctx"
	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/model"
	"github.com/velora-beauty/velora-server/internal/service"
)

// Auth handles the HTTP auth endpoints for one audience. The storefront and
// the admin console each get an instance with their own orchestrator and
// cookie names.
type Auth struct {
	authService  *service.Auth
	resetService *service.Reset
	cookies      CookieConfig
	logger       *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService *service.Auth, resetService *service.Reset, cookies CookieConfig, logger *logger.Logger) *Auth {
	return &Auth{
		authService:  authService,
		resetService: resetService,
		cookies:      cookies,
		logger:       logger,
	}
}

// Cookies exposes the handler's cookie configuration to the router's
// authenticate middleware.
func (h *Auth) Cookies() CookieConfig { return h.cookies }

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User        model.SafeUser `json:"user"`
	Permissions []string       `json:"permissions,omitempty"`
	AccessToken string         `json:"accessToken"`
}

// Login authenticates credentials and establishes the cookie session.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Violations: []string{"request body must be valid JSON"}})
		return
	}

	var missing []string
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email is required")
	}
	if req.Password == "" {
		missing = append(missing, "password is required")
	}
	if len(missing) > 0 {
		writeError(w, &model.ValidationError{Violations: missing})
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		h.logger.Info("Auth handler: login failed",
			"audience", h.authService.Audience(),
			"ip", clientIP(r),
			"error", err.Error())
		writeError(w, err)
		return
	}

	tokens := h.authService.Tokens()
	h.cookies.SetSession(w, session.AccessToken, session.RefreshToken, tokens.AccessTTL(), tokens.RefreshTTL())

	writeJSON(w, http.StatusOK, sessionResponse{
		User:        session.User,
		Permissions: session.Permissions,
		AccessToken: session.AccessToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the refresh token. Cookie first, then the body field for
// API-style admin clients.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := h.readRefreshToken(r)
	if presented == "" {
		writeError(w, model.ErrInvalidToken)
		return
	}

	session, err := h.authService.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	tokens := h.authService.Tokens()
	h.cookies.SetSession(w, session.AccessToken, session.RefreshToken, tokens.AccessTTL(), tokens.RefreshTTL())

	writeJSON(w, http.StatusOK, sessionResponse{
		User:        session.User,
		Permissions: session.Permissions,
		AccessToken: session.AccessToken,
	})
}

func (h *Auth) readRefreshToken(r *http.Request) string {
	if c, err := r.Cookie(h.cookies.RefreshName); err == nil && c.Value != "" {
		return c.Value
	}
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// Logout revokes the presented tokens best-effort and always clears the
// cookies, regardless of what went wrong before.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	var refreshToken, accessToken string
	if c, err := r.Cookie(h.cookies.RefreshName); err == nil {
		refreshToken = c.Value
	}
	if c, err := r.Cookie(h.cookies.AccessName); err == nil {
		accessToken = c.Value
	}

	h.authService.Logout(r.Context(), refreshToken, accessToken)

	h.cookies.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

type meResponse struct {
	User        model.SafeUser `json:"user"`
	Permissions []string       `json:"permissions,omitempty"`
}

// Me returns the safe projection of the authenticated account, re-fetched
// from the credential store.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpctx.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, model.ErrInvalidToken)
		return
	}

	user, permissions, err := h.authService.Me(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: user, Permissions: permissions})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the authenticated account's password. All sessions
// are revoked on success and the cookies cleared, so the client logs in
// again with the new password.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpctx.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, model.ErrInvalidToken)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, &model.ValidationError{Violations: []string{"currentPassword and newPassword are required"}})
		return
	}

	if err := h.authService.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	h.cookies.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed, please log in again"})
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateAccount provisions a new account for this audience. Registered only
// on the admin surface, behind the admins:manage permission.
func (h *Auth) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Violations: []string{"request body must be valid JSON"}})
		return
	}

	var missing []string
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email is required")
	}
	if req.Password == "" {
		missing = append(missing, "password is required")
	}
	if req.Role == "" {
		missing = append(missing, "role is required")
	}
	if len(missing) > 0 {
		writeError(w, &model.ValidationError{Violations: missing})
		return
	}

	user, err := h.authService.CreateAccount(r.Context(), req.Email, req.Name, req.Password, model.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]model.SafeUser{"user": user})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type forgotPasswordResponse struct {
	Message string `json:"message"`
	// OTP is populated only when debug OTP exposure is enabled outside
	// production.
	OTP string `json:"otp,omitempty"`
}

// ForgotPassword requests a one-time reset code. The response shape is the
// same whether or not the account exists.
func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		writeError(w, &model.ValidationError{Violations: []string{"email is required"}})
		return
	}

	code, err := h.resetService.Forgot(r.Context(), req.Email, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, forgotPasswordResponse{
		Message: "If that email exists, a reset code has been sent",
		OTP:     code,
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyOTP exchanges a valid one-time code for a single-use reset token.
func (h *Auth) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Code == "" {
		writeError(w, &model.ValidationError{Violations: []string{"email and code are required"}})
		return
	}

	resetToken, err := h.resetService.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"resetToken": resetToken})
}

type resetPasswordRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword consumes the reset token and replaces the password. All of
// the owner's sessions are revoked as part of the same transaction.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ResetToken == "" || req.NewPassword == "" {
		writeError(w, &model.ValidationError{Violations: []string{"resetToken and newPassword are required"}})
		return
	}

	if err := h.resetService.SubmitNewPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		// An unknown reset token is an authentication outcome, not a missing
		// resource.
		if errors.Is(err, model.ErrNotFound) {
			err = model.ErrInvalidToken
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}

// Package router assembles the HTTP API: both audience surfaces, their
// middleware chains, and the admin media routes.
package router

import (
	"net/http"

	"github.com/velora-beauty/velora-server/internal/api/http/handler"
	"github.com/velora-beauty/velora-server/internal/api/http/middleware"
	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/model"
	"github.com/velora-beauty/velora-server/internal/service"
)

// Router builds the HTTP handler tree for both audiences.
type Router struct {
	customerAuth  *handler.Auth
	adminAuth     *handler.Auth
	media         *handler.Media
	adminVerifier *middleware.Authenticate
	custVerifier  *middleware.Authenticate
	adminPerms    map[model.Role][]string
	logger        *logger.Logger
}

// New creates a Router wiring the audience orchestrators to their routes.
func New(
	customerAuth *service.Auth,
	customerReset *service.Reset,
	adminAuth *service.Auth,
	adminReset *service.Reset,
	storage model.Storage,
	secureCookies bool,
	logger *logger.Logger,
) *Router {
	customerCookies := handler.CookieConfig{
		AccessName:  "auth_token",
		RefreshName: "refresh_token",
		SameSite:    http.SameSiteLaxMode,
		Secure:      secureCookies,
	}
	adminCookies := handler.CookieConfig{
		AccessName:  "admin_access_token",
		RefreshName: "admin_refresh_token",
		SameSite:    http.SameSiteStrictMode,
		Secure:      secureCookies,
	}

	return &Router{
		customerAuth: handler.NewAuth(customerAuth, customerReset, customerCookies, logger),
		adminAuth:    handler.NewAuth(adminAuth, adminReset, adminCookies, logger),
		media:        handler.NewMedia(storage, logger),
		custVerifier: middleware.NewAuthenticate(
			customerAuth.Tokens(), model.AudienceCustomer, customerCookies.AccessName, logger),
		adminVerifier: middleware.NewAuthenticate(
			adminAuth.Tokens(), model.AudienceAdmin, adminCookies.AccessName, logger),
		adminPerms: service.AdminPermissions,
		logger:     logger,
	}
}

// Register builds the ServeMux with both audience route sets.
func (r *Router) Register() http.Handler {
	mux := http.NewServeMux()

	registerAuthRoutes(mux, "/api/auth", r.customerAuth, r.custVerifier)
	registerAuthRoutes(mux, "/api/admin/auth", r.adminAuth, r.adminVerifier)

	adminsManage := middleware.RequirePermission(r.adminPerms, "admins:manage")
	mux.Handle("POST /api/admin/auth/admins",
		r.adminVerifier.Handle(adminsManage(http.HandlerFunc(r.adminAuth.CreateAccount))))

	contentWrite := middleware.RequirePermission(r.adminPerms, "content:write")
	contentRead := middleware.RequirePermission(r.adminPerms, "content:read")
	mux.Handle("POST /api/admin/media/{key}",
		r.adminVerifier.Handle(contentWrite(http.HandlerFunc(r.media.Upload))))
	mux.Handle("GET /api/admin/media/{key}",
		r.adminVerifier.Handle(contentRead(http.HandlerFunc(r.media.Download))))
	mux.Handle("DELETE /api/admin/media/{key}",
		r.adminVerifier.Handle(contentWrite(http.HandlerFunc(r.media.Delete))))

	logging := middleware.NewLogging(r.logger)
	return logging.Handle(mux)
}

func registerAuthRoutes(mux *http.ServeMux, prefix string, h *handler.Auth, verifier *middleware.Authenticate) {
	mux.HandleFunc("POST "+prefix+"/login", h.Login)
	mux.HandleFunc("POST "+prefix+"/refresh", h.Refresh)
	mux.HandleFunc("POST "+prefix+"/logout", h.Logout)
	mux.Handle("GET "+prefix+"/me", verifier.Handle(http.HandlerFunc(h.Me)))
	mux.Handle("POST "+prefix+"/change-password", verifier.Handle(http.HandlerFunc(h.ChangePassword)))
	mux.HandleFunc("POST "+prefix+"/forgot-password", h.ForgotPassword)
	mux.HandleFunc("POST "+prefix+"/verify-otp", h.VerifyOTP)
	mux.HandleFunc("POST "+prefix+"/reset-password", h.ResetPassword)
}

package handler

import (
	"net/http"
	"time"
)

// CookieConfig names the auth cookies for one audience and carries their
// attributes. The storefront uses SameSite=Lax; the admin console Strict.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	SameSite    http.SameSite
	Secure      bool
}

func (c CookieConfig) set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
		MaxAge:   int(ttl.Seconds()),
	})
}

func (c CookieConfig) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
		MaxAge:   -1,
	})
}

// SetSession writes both auth cookies with Max-Age matching the token TTLs.
func (c CookieConfig) SetSession(w http.ResponseWriter, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	c.set(w, c.AccessName, accessToken, accessTTL)
	c.set(w, c.RefreshName, refreshToken, refreshTTL)
}

// ClearSession removes both auth cookies. Clearing an already-absent cookie
// is harmless, which keeps logout idempotent.
func (c CookieConfig) ClearSession(w http.ResponseWriter) {
	c.clear(w, c.AccessName)
	c.clear(w, c.RefreshName)
}

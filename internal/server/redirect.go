package server

import (
	"net/http"
	"strings"
	"time"
)

const redirectCookieName = "redaid_redirect"

func (s *Service) setRedirectCookie(w http.ResponseWriter, path string, age time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     redirectCookieName,
		Value:    path,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(age.Seconds()),
	})
}

func (s *Service) clearRedirectCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     redirectCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// popRedirect returns the path saved when an unauthenticated caller was
// turned away, clearing it. Defaults to the dashboard.
func (s *Service) popRedirect(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(redirectCookieName)
	if err != nil || !strings.HasPrefix(cookie.Value, "/") || strings.HasPrefix(cookie.Value, "//") {
		return "/dashboard"
	}

	s.clearRedirectCookie(w)
	return cookie.Value
}

func (s *Service) secureCookies() bool {
	return s.config.Environment != "development" && s.config.Environment != "test"
}

package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"redaid/internal/access"
	"redaid/pkg/types"

	"github.com/sirupsen/logrus"
)

type contextKey string

const contextKeySession contextKey = "session"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// ResolveSession attaches the caller's session to the request context. It
// never rejects a request; that is left to RequireCapability.
func (s *Service) ResolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := s.sessions.Resolve(r)

		if session.IsAuthenticated {
			s.logger.WithFields(logrus.Fields{
				"email": session.Email,
				"state": session.State,
			}).Debug("resolved session")
		}

		ctx := context.WithValue(r.Context(), contextKeySession, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCapability runs the access gate for every route in a group.
func (s *Service) RequireCapability(capability access.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := access.Decide(sessionFromContext(r.Context()), access.View{
				Path:     r.URL.Path,
				Requires: capability,
			})

			switch decision.Outcome {
			case access.Allow:
				next.ServeHTTP(w, r)
			case access.Wait:
				w.Header().Set("Retry-After", "1")
				s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "session is still resolving"})
			default:
				if decision.ReturnTo != "" && r.Method == http.MethodGet {
					s.setRedirectCookie(w, decision.ReturnTo, time.Minute*5)
				}

				status := http.StatusForbidden
				if decision.Reason == types.ReasonUnauthenticated {
					status = http.StatusUnauthorized
				}

				s.writeJSON(w, status, errorResponse{
					Error:    "access denied",
					Reason:   decision.Reason,
					Redirect: decision.Redirect,
				})
			}
		})
	}
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func sessionFromContext(ctx context.Context) *types.Session {
	session, _ := ctx.Value(contextKeySession).(*types.Session)
	return session
}

// actorFromContext returns nil for anonymous callers and for sessions whose
// user could not be loaded.
func actorFromContext(ctx context.Context) *types.Actor {
	return sessionFromContext(ctx).Actor()
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"redaid/pkg/types"

	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

const SessionCookieName = "redaid_session"

type Users interface {
	User(ctx context.Context, email string) (*types.User, error)
	UpsertIdentity(ctx context.Context, email, name string) (*types.User, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*types.SessionClaims, string, error)
}

type Sessions struct {
	logger   logrus.FieldLogger
	cookie   *securecookie.SecureCookie
	verifier TokenVerifier
	users    Users
	maxAge   time.Duration
	secure   bool
	now      func() time.Time
}

func NewSessions(logger logrus.FieldLogger, hashKey, blockKey []byte, verifier TokenVerifier, users Users, maxAge time.Duration, secure bool) *Sessions {
	cookie := securecookie.New(hashKey, blockKey)
	cookie.MaxAge(int(maxAge.Seconds()))

	return &Sessions{
		logger:   logger,
		cookie:   cookie,
		verifier: verifier,
		users:    users,
		maxAge:   maxAge,
		secure:   secure,
		now:      time.Now,
	}
}

// Exchange turns a verified identity token into a backend session cookie,
// registering the user on first sight. Any failure is a SessionExchangeError.
func (s *Sessions) Exchange(ctx context.Context, idToken string) (*http.Cookie, *types.User, error) {
	claims, name, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, nil, &types.SessionExchangeError{Err: err}
	}

	user, err := s.users.UpsertIdentity(ctx, claims.Email, name)
	if err != nil {
		return nil, nil, &types.SessionExchangeError{Err: fmt.Errorf("failed to register identity: %w", err)}
	}

	expires := s.now().Add(s.maxAge)
	if claims.ExpiresAt == 0 || claims.ExpiresAt > expires.Unix() {
		claims.ExpiresAt = expires.Unix()
	}

	encoded, err := s.cookie.Encode(SessionCookieName, claims)
	if err != nil {
		return nil, nil, &types.SessionExchangeError{Err: fmt.Errorf("failed to encode session: %w", err)}
	}

	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(claims.ExpiresAt - s.now().Unix()),
		Path:     "/",
	}, user, nil
}

func (s *Sessions) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Path:     "/",
	}
}

// Resolve builds the session for a request. Missing, tampered or expired
// cookies resolve to an anonymous session. A failed user lookup yields an
// authenticated session with no role, which role gated views refuse.
func (s *Sessions) Resolve(r *http.Request) *types.Session {
	anonymous := &types.Session{State: types.SessionResolved}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return anonymous
	}

	var claims types.SessionClaims
	if err := s.cookie.Decode(SessionCookieName, cookie.Value, &claims); err != nil {
		s.logger.WithError(err).Debug("failed to decode session cookie")
		return anonymous
	}

	if claims.Email == "" || claims.ExpiresAt <= s.now().Unix() {
		return anonymous
	}

	user, err := s.users.User(r.Context(), claims.Email)
	if err != nil {
		if !errors.Is(err, types.ErrUserNotFound) {
			s.logger.WithError(err).WithField("email", claims.Email).Error("failed to resolve session user")
		}
		return &types.Session{
			State:           types.SessionFailed,
			IsAuthenticated: true,
			Email:           claims.Email,
		}
	}

	role := user.Role
	return &types.Session{
		State:           types.SessionResolved,
		IsAuthenticated: true,
		Email:           user.Email,
		Role:            &role,
		Status:          user.Status,
		User:            user,
	}
}

package server

import (
	"net/http"
	"strings"

	"redaid/pkg/types"
)

type sessionResponse struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	Email           string      `json:"email,omitempty"`
	Role            *types.Role `json:"role,omitempty"`
	Status          string      `json:"status,omitempty"`
	User            *types.User `json:"user,omitempty"`
	Redirect        string      `json:"redirect,omitempty"`
}

// handlePostLogin signs in with the identity provider and then exchanges the
// identity token for a backend session. A failure in the second step is
// reported as a session exchange failure, not as bad credentials.
func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body types.LoginForm
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	tokens, err := s.provider.SignIn(ctx, strings.TrimSpace(body.Email), body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.exchange(w, r, tokens.IDToken)
}

// handlePostJWT exchanges an identity token obtained directly from the
// provider for a backend session.
func (s *Service) handlePostJWT(w http.ResponseWriter, r *http.Request) {
	var body types.TokenExchangeForm
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if strings.TrimSpace(body.IDToken) == "" {
		s.writeError(w, r, types.NewValidationError(map[string]string{"idToken": "identity token is required"}))
		return
	}

	s.exchange(w, r, body.IDToken)
}

func (s *Service) exchange(w http.ResponseWriter, r *http.Request, idToken string) {
	cookie, user, err := s.sessions.Exchange(r.Context(), idToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, cookie)

	s.logger.WithField("email", user.Email).Info("session established")

	role := user.Role
	s.writeJSON(w, http.StatusOK, sessionResponse{
		IsAuthenticated: true,
		Email:           user.Email,
		Role:            &role,
		Status:          string(user.Status),
		User:            user,
		Redirect:        s.popRedirect(w, r),
	})
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.sessions.ClearCookie())
	s.clearRedirectCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil || !session.IsAuthenticated {
		s.writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	s.writeJSON(w, http.StatusOK, sessionResponse{
		IsAuthenticated: true,
		Email:           session.Email,
		Role:            session.Role,
		Status:          string(session.Status),
		User:            session.User,
	})
}

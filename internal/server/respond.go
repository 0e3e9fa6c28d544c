package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"redaid/pkg/types"
)

type errorResponse struct {
	Error    string            `json:"error"`
	Reason   string            `json:"reason,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	// From and To are set on conflicts; From is the status the request is in now.
	From types.RequestStatus `json:"from,omitempty"`
	To   types.RequestStatus `json:"to,omitempty"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Anything outside the
// taxonomy is logged and reported as a generic failure.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}

	s.writeJSON(w, status, body)
}

func classify(err error) (int, errorResponse) {
	var validation *types.ValidationError
	var authz *types.AuthorizationError
	var transition *types.InvalidTransitionError
	var notFound *types.NotFoundError
	var exchange *types.SessionExchangeError
	var network *types.NetworkError

	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: validation.Fields}
	case errors.As(err, &authz):
		if authz.Reason == types.ReasonUnauthenticated {
			return http.StatusUnauthorized, errorResponse{Error: "authentication required", Reason: authz.Reason}
		}
		return http.StatusForbidden, errorResponse{Error: "not allowed", Reason: authz.Reason}
	case errors.As(err, &transition):
		return http.StatusConflict, errorResponse{
			Error: "this request can no longer be updated",
			From:  transition.From,
			To:    transition.To,
		}
	case errors.As(err, &notFound):
		return http.StatusNotFound, errorResponse{Error: notFound.Error()}
	case errors.As(err, &exchange):
		return http.StatusBadGateway, errorResponse{Error: "signed in, but a session could not be established, please retry"}
	case errors.As(err, &network):
		return http.StatusBadGateway, errorResponse{Error: "upstream service unavailable, please retry"}
	}

	return http.StatusInternalServerError, errorResponse{Error: "something went wrong"}
}

func (s *Service) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

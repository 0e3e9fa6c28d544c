package server

import (
	"context"
	"net/http"

	"redaid/internal/lifecycle"
	"redaid/internal/utils"
	"redaid/pkg/types"

	"github.com/alexedwards/flow"
)

// visibleFilter narrows a listing to what the caller may browse. Staff see
// every status. Everyone else sees pending requests, plus all of their own.
func visibleFilter(filter *types.DonationRequestFilter, actor *types.Actor) {
	if actor.HasRole(types.RoleAdmin, types.RoleVolunteer) {
		return
	}
	if actor != nil && filter.RequesterEmail != "" && filter.RequesterEmail == actor.Email {
		return
	}
	filter.Status = string(types.RequestStatusPending)
}

func (s *Service) listDonationRequests(ctx context.Context, filter *types.DonationRequestFilter) ([]*types.DonationRequest, error) {
	load := func() ([]*types.DonationRequest, error) {
		return s.requestRepo.DonationRequests(ctx, filter)
	}

	if s.listCache == nil {
		return load()
	}

	return s.listCache.CacheAside(ctx, filter, load)
}

func decodeRequestFilter(r *http.Request) (*types.DonationRequestFilter, error) {
	var filter types.DonationRequestFilter
	if err := decodeQuery(r, &filter); err != nil {
		return nil, err
	}

	if filter.Status != "" && !types.RequestStatus(filter.Status).Valid() {
		return nil, types.NewValidationError(map[string]string{"status": "unknown request status"})
	}

	return &filter, nil
}

func (s *Service) handleListDonationRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := decodeRequestFilter(r)
	if err != nil {
		s.writeFilterError(w, r, err)
		return
	}

	visibleFilter(filter, actorFromContext(ctx))

	requests, err := s.listDonationRequests(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("failed to list donation requests")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, requests)
}

func (s *Service) handleMyDonationRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFromContext(ctx)
	if actor == nil {
		s.writeError(w, r, types.Denied(types.ReasonUnauthenticated))
		return
	}

	filter, err := decodeRequestFilter(r)
	if err != nil {
		s.writeFilterError(w, r, err)
		return
	}
	filter.RequesterEmail = actor.Email

	requests, err := s.listDonationRequests(ctx, filter)
	if err != nil {
		s.logger.WithError(err).WithField("email", actor.Email).Error("failed to list own donation requests")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, requests)
}

func (s *Service) writeFilterError(w http.ResponseWriter, r *http.Request, err error) {
	if types.IsValidation(err) {
		s.writeError(w, r, err)
		return
	}
	s.badRequest(w, err.Error())
}

// handleGetDonationRequest returns the request with the transitions the
// caller may trigger. Anonymous callers only see pending requests.
func (s *Service) handleGetDonationRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestIDParam(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := actorFromContext(ctx)

	view, err := s.engine.Get(ctx, id, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if actor == nil && view.Status != types.RequestStatusPending {
		s.writeError(w, r, &types.NotFoundError{Entity: "donation request", ID: id})
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Service) handleCreateDonationRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body types.DonationRequestForm
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	req, err := s.engine.CreateRequest(ctx, actorFromContext(ctx), &body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, req)
}

// handlePatchDonationRequestStatus is the single entry point for status
// changes.
func (s *Service) handlePatchDonationRequestStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestIDParam(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := actorFromContext(ctx)

	var body types.StatusChange
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	req, err := s.engine.TransitionStatus(ctx, id, actor, body.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, lifecycle.Permissions(req, actor))
}

func (s *Service) handlePatchDonationRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestIDParam(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := actorFromContext(ctx)

	var body types.DonationRequestPatch
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	req, err := s.engine.EditRequest(ctx, id, actor, &body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, lifecycle.Permissions(req, actor))
}

func (s *Service) handleDeleteDonationRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestIDParam(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.engine.DeleteRequest(ctx, id, actorFromContext(ctx)); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetDonationRequestEvents lists the status history. Only the people
// involved with the request and staff can read it.
func (s *Service) handleGetDonationRequestEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestIDParam(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := actorFromContext(ctx)

	view, err := s.engine.Get(ctx, id, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !view.IsRequester(actor) && !view.IsDonor(actor) && !actor.HasRole(types.RoleAdmin, types.RoleVolunteer) {
		s.writeError(w, r, types.Denied(types.ReasonForbidden))
		return
	}

	events, err := s.eventRepo.EventsByRequest(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", id).Error("failed to list request events")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, events)
}

// requestIDParam rejects ids that cannot exist with the same NotFoundError the
// engine would return.
func requestIDParam(ctx context.Context) (string, error) {
	id := flow.Param(ctx, "id")
	if !utils.ValidID(id) {
		return "", &types.NotFoundError{Entity: "donation request", ID: id}
	}
	return id, nil
}

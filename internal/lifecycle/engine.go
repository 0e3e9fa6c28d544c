// Package lifecycle validates and executes donation request state changes.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"redaid/pkg/types"

	"github.com/sirupsen/logrus"
)

type Repository interface {
	DonationRequest(ctx context.Context, id string) (*types.DonationRequest, error)
	CreateDonationRequest(ctx context.Context, req *types.DonationRequest) error
	// UpdateDonationRequestStatus moves the request to `to` only if its stored
	// status is still `from`. It reports whether a row was changed.
	UpdateDonationRequestStatus(ctx context.Context, id string, from, to types.RequestStatus, donor *types.Actor) (bool, error)
	// UpdateDonationRequestFields stores editable fields only while the request
	// is pending. It reports whether a row was changed.
	UpdateDonationRequestFields(ctx context.Context, req *types.DonationRequest) (bool, error)
	DeleteDonationRequest(ctx context.Context, id string) error
}

type EventRecorder interface {
	RecordTransition(ctx context.Context, event *types.RequestEvent) error
}

// Invalidator drops cached list views that contain the request, or that are
// filtered on any of the given statuses. A removed request also shifts the
// pages of every list it could have appeared in.
type Invalidator interface {
	InvalidateRequest(ctx context.Context, id string, statuses ...types.RequestStatus) error
	InvalidateRemovedRequest(ctx context.Context, id string, status types.RequestStatus) error
}

type Engine struct {
	logger      logrus.FieldLogger
	repo        Repository
	events      EventRecorder
	invalidator Invalidator
	locations   Locations
}

type Option func(*Engine)

func WithEventRecorder(events EventRecorder) Option {
	return func(e *Engine) { e.events = events }
}

func WithInvalidator(invalidator Invalidator) Option {
	return func(e *Engine) { e.invalidator = invalidator }
}

func WithLocations(locations Locations) Option {
	return func(e *Engine) { e.locations = locations }
}

func New(logger logrus.FieldLogger, repo Repository, opts ...Option) *Engine {
	e := &Engine{logger: logger, repo: repo}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) load(ctx context.Context, id string) (*types.DonationRequest, error) {
	req, err := e.repo.DonationRequest(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrDonationRequestNotFound) {
			return nil, &types.NotFoundError{Entity: "donation request", ID: id}
		}
		return nil, fmt.Errorf("failed to load donation request %s: %w", id, err)
	}
	return req, nil
}

// Get returns the request along with what actor may do with it.
func (e *Engine) Get(ctx context.Context, id string, actor *types.Actor) (*types.DonationRequestView, error) {
	req, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return Permissions(req, actor), nil
}

// CreateRequest opens a pending request on behalf of requester. A blocked
// requester is rejected before the payload is looked at.
func (e *Engine) CreateRequest(ctx context.Context, requester *types.Actor, form *types.DonationRequestForm) (*types.DonationRequest, error) {
	if err := CheckCreate(requester); err != nil {
		return nil, err
	}

	if fieldErrs := validateForm(form, e.locations); len(fieldErrs) > 0 {
		return nil, types.NewValidationError(fieldErrs)
	}

	req := &types.DonationRequest{
		RequesterName:  requester.Name,
		RequesterEmail: requester.Email,
		RecipientName:  strings.TrimSpace(form.RecipientName),
		DistrictID:     strings.TrimSpace(form.DistrictID),
		Upazila:        strings.TrimSpace(form.Upazila),
		HospitalName:   strings.TrimSpace(form.HospitalName),
		FullAddress:    strings.TrimSpace(form.FullAddress),
		BloodGroup:     form.BloodGroup,
		DonationDate:   form.DonationDate,
		DonationTime:   form.DonationTime,
		Message:        form.Message,
		Status:         types.RequestStatusPending,
	}

	if err := e.repo.CreateDonationRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create donation request: %w", err)
	}

	e.record(ctx, req.ID, nil, types.RequestStatusPending, requester)
	e.invalidate(ctx, req.ID, types.RequestStatusPending)

	return req, nil
}

// TransitionStatus moves the request to `to` as actor. The store update is
// conditional on the status read here, so of two identical concurrent calls
// exactly one applies and the other gets InvalidTransitionError.
func (e *Engine) TransitionStatus(ctx context.Context, id string, actor *types.Actor, to types.RequestStatus) (*types.DonationRequest, error) {
	req, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := CheckTransition(req, actor, to); err != nil {
		return nil, err
	}

	from := req.Status

	var donor *types.Actor
	if to == types.RequestStatusInProgress {
		donor = actor
	}

	changed, err := e.repo.UpdateDonationRequestStatus(ctx, id, from, to, donor)
	if err != nil {
		return nil, fmt.Errorf("failed to update donation request %s status: %w", id, err)
	}

	if !changed {
		current, err := e.load(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &types.InvalidTransitionError{From: current.Status, To: to}
	}

	req.Status = to
	if donor != nil {
		req.DonorName = &donor.Name
		req.DonorEmail = &donor.Email
	}

	e.record(ctx, id, &from, to, actor)
	e.invalidate(ctx, id, from, to)

	e.logger.WithFields(logrus.Fields{
		"request_id": id,
		"from":       from,
		"to":         to,
		"actor":      actor.Email,
		"requester":  req.RequesterEmail,
	}).Info("donation request status changed")

	return req, nil
}

// EditRequest applies patch to a pending request. Unpatched fields are kept.
func (e *Engine) EditRequest(ctx context.Context, id string, actor *types.Actor, patch *types.DonationRequestPatch) (*types.DonationRequest, error) {
	req, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := CheckEdit(req, actor); err != nil {
		return nil, err
	}

	updated := *req
	patch.Apply(&updated)

	if fieldErrs := validatePatch(patch, &updated, e.locations); len(fieldErrs) > 0 {
		return nil, types.NewValidationError(fieldErrs)
	}

	changed, err := e.repo.UpdateDonationRequestFields(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update donation request %s: %w", id, err)
	}

	if !changed {
		if _, err := e.load(ctx, id); err != nil {
			return nil, err
		}
		return nil, types.Denied(types.ReasonNotPending)
	}

	e.invalidate(ctx, id)

	return &updated, nil
}

func (e *Engine) DeleteRequest(ctx context.Context, id string, actor *types.Actor) error {
	req, err := e.load(ctx, id)
	if err != nil {
		return err
	}

	if err := CheckDelete(req, actor); err != nil {
		return err
	}

	err = e.repo.DeleteDonationRequest(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrDonationRequestNotFound) {
			return &types.NotFoundError{Entity: "donation request", ID: id}
		}
		return fmt.Errorf("failed to delete donation request %s: %w", id, err)
	}

	if e.invalidator != nil {
		if err := e.invalidator.InvalidateRemovedRequest(ctx, id, req.Status); err != nil {
			e.logger.WithError(err).WithField("request_id", id).Error("failed to invalidate cached request lists")
		}
	}

	return nil
}

// The mutation already happened; losing the history row must not undo it.
func (e *Engine) record(ctx context.Context, id string, from *types.RequestStatus, to types.RequestStatus, actor *types.Actor) {
	if e.events == nil {
		return
	}

	event := &types.RequestEvent{RequestID: id, ToStatus: to, ActorEmail: actor.Email}
	if from != nil {
		s := string(*from)
		event.FromStatus = &s
	}

	if err := e.events.RecordTransition(ctx, event); err != nil {
		e.logger.WithError(err).WithField("request_id", id).Error("failed to record donation request event")
	}
}

func (e *Engine) invalidate(ctx context.Context, id string, statuses ...types.RequestStatus) {
	if e.invalidator == nil {
		return
	}

	if err := e.invalidator.InvalidateRequest(ctx, id, statuses...); err != nil {
		e.logger.WithError(err).WithField("request_id", id).Error("failed to invalidate cached request lists")
	}
}

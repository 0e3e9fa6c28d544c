package lifecycle

import "redaid/pkg/types"

type authorizeFunc func(req *types.DonationRequest, actor *types.Actor) error

type transition struct {
	From      types.RequestStatus
	To        types.RequestStatus
	authorize authorizeFunc
}

// transitions is the only place that decides which status changes exist and
// who may trigger them. Pairs not listed here are rejected for every actor.
var transitions = []transition{
	{From: types.RequestStatusPending, To: types.RequestStatusInProgress, authorize: authorizeAccept},
	{From: types.RequestStatusInProgress, To: types.RequestStatusDone, authorize: authorizeFulfil},
	{From: types.RequestStatusInProgress, To: types.RequestStatusCanceled, authorize: authorizeFulfil},
	{From: types.RequestStatusPending, To: types.RequestStatusCanceled, authorize: authorizeWithdraw},
}

func lookup(from, to types.RequestStatus) (transition, bool) {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return transition{}, false
}

func requireActive(actor *types.Actor) error {
	if actor == nil || actor.Email == "" {
		return types.Denied(types.ReasonUnauthenticated)
	}
	if actor.IsBlocked() {
		return types.Denied(types.ReasonBlocked)
	}
	return nil
}

// Any active user except the requester may accept a pending request.
func authorizeAccept(req *types.DonationRequest, actor *types.Actor) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	if req.IsRequester(actor) {
		return types.Denied(types.ReasonOwnRequest)
	}
	return nil
}

// The accepting donor, or staff, may finish or cancel an in-progress request.
func authorizeFulfil(req *types.DonationRequest, actor *types.Actor) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	if req.IsDonor(actor) || actor.HasRole(types.RoleAdmin, types.RoleVolunteer) {
		return nil
	}
	return types.Denied(types.ReasonForbidden)
}

// The requester or an admin may withdraw a request nobody has accepted yet.
func authorizeWithdraw(req *types.DonationRequest, actor *types.Actor) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	if req.IsRequester(actor) || actor.HasRole(types.RoleAdmin) {
		return nil
	}
	return types.Denied(types.ReasonForbidden)
}

// CheckTransition validates a status change without performing it.
func CheckTransition(req *types.DonationRequest, actor *types.Actor, to types.RequestStatus) error {
	if !to.Valid() {
		return types.NewValidationError(map[string]string{"status": "Unknown status."})
	}

	t, ok := lookup(req.Status, to)
	if !ok {
		return &types.InvalidTransitionError{From: req.Status, To: to}
	}

	return t.authorize(req, actor)
}

// AllowedTransitions lists the target statuses the actor may move req to, in
// table order. UI surfaces derive button visibility from this.
func AllowedTransitions(req *types.DonationRequest, actor *types.Actor) []types.RequestStatus {
	out := make([]types.RequestStatus, 0, 2)
	for _, t := range transitions {
		if t.From != req.Status {
			continue
		}
		if t.authorize(req, actor) == nil {
			out = append(out, t.To)
		}
	}
	return out
}

// CheckEdit reports whether actor may change the fields of req.
func CheckEdit(req *types.DonationRequest, actor *types.Actor) error {
	if actor == nil || actor.Email == "" {
		return types.Denied(types.ReasonUnauthenticated)
	}
	if !req.IsRequester(actor) && !actor.HasRole(types.RoleAdmin) {
		return types.Denied(types.ReasonForbidden)
	}
	if req.Status != types.RequestStatusPending {
		return types.Denied(types.ReasonNotPending)
	}
	return nil
}

// CheckDelete reports whether actor may delete req. Status does not matter.
func CheckDelete(req *types.DonationRequest, actor *types.Actor) error {
	if actor == nil || actor.Email == "" {
		return types.Denied(types.ReasonUnauthenticated)
	}
	if !req.IsRequester(actor) && !actor.HasRole(types.RoleAdmin) {
		return types.Denied(types.ReasonForbidden)
	}
	return nil
}

// CheckCreate reports whether actor may open a new donation request.
func CheckCreate(actor *types.Actor) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	if !actor.HasRole(types.RoleDonor) {
		return types.Denied(types.ReasonForbidden)
	}
	return nil
}

// Permissions bundles everything a viewer may do with req.
func Permissions(req *types.DonationRequest, actor *types.Actor) *types.DonationRequestView {
	return &types.DonationRequestView{
		DonationRequest:    req,
		AllowedTransitions: AllowedTransitions(req, actor),
		CanEdit:            CheckEdit(req, actor) == nil,
		CanDelete:          CheckDelete(req, actor) == nil,
	}
}

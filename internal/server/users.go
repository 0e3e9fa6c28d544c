package server

import (
	"errors"
	"net/http"
	"strings"

	"redaid/internal/reference"
	"redaid/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/sirupsen/logrus"
)

type roleChange struct {
	Role types.Role `json:"role"`
}

type statusChange struct {
	Status types.UserStatus `json:"status"`
}

type roleResponse struct {
	Role   types.Role       `json:"role"`
	Status types.UserStatus `json:"status"`
}

// emailParam returns the :email path parameter, normalised.
func emailParam(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(flow.Param(r.Context(), "email")))
}

// selfOrAdmin allows a user to read or edit their own record, and an admin
// to read or edit anyone's.
func selfOrAdmin(actor *types.Actor, email string) error {
	if actor == nil {
		return types.Denied(types.ReasonUnauthenticated)
	}
	if actor.Email == email || actor.HasRole(types.RoleAdmin) {
		return nil
	}
	return types.Denied(types.ReasonForbidden)
}

func validateProfile(form *types.UserProfileForm, locations *reference.Locations) map[string]string {
	errs := map[string]string{}

	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		errs["name"] = "Name is required."
	}

	if form.BloodGroup != nil && !types.BloodGroup(*form.BloodGroup).Valid() {
		errs["bloodGroup"] = "Select a valid blood group."
	}

	if form.DistrictID != nil || form.Upazila != nil {
		district, upazila := "", ""
		if form.DistrictID != nil {
			district = *form.DistrictID
		}
		if form.Upazila != nil {
			upazila = *form.Upazila
		}
		if locations != nil && !locations.ValidLocation(district, upazila) {
			errs["upazila"] = "Select an upazila within the chosen district."
		}
	}

	return errs
}

func (s *Service) userNotFound(email string) error {
	return &types.NotFoundError{Entity: "user", ID: email}
}

// handlePostUser saves the caller's own profile.
func (s *Service) handlePostUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFromContext(ctx)
	if actor == nil {
		s.writeError(w, r, types.Denied(types.ReasonForbidden))
		return
	}

	s.saveProfile(w, r, actor.Email)
}

func (s *Service) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	if err := selfOrAdmin(actorFromContext(r.Context()), email); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.saveProfile(w, r, email)
}

func (s *Service) saveProfile(w http.ResponseWriter, r *http.Request, email string) {
	ctx := r.Context()

	var body types.UserProfileForm
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if fieldErrs := validateProfile(&body, s.locations); len(fieldErrs) > 0 {
		s.writeError(w, r, types.NewValidationError(fieldErrs))
		return
	}

	if err := s.userRepo.UpdateProfile(ctx, email, &body); err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			s.writeError(w, r, s.userNotFound(email))
			return
		}
		s.logger.WithError(err).WithField("email", email).Error("failed to update profile")
		s.writeError(w, r, err)
		return
	}

	user, err := s.userRepo.User(ctx, email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *Service) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := emailParam(r)

	if err := selfOrAdmin(actorFromContext(ctx), email); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.userRepo.User(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			s.writeError(w, r, s.userNotFound(email))
			return
		}
		s.logger.WithError(err).WithField("email", email).Error("failed to fetch user")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *Service) handleGetUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := emailParam(r)

	if err := selfOrAdmin(actorFromContext(ctx), email); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.userRepo.User(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			s.writeError(w, r, s.userNotFound(email))
			return
		}
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, roleResponse{Role: user.Role, Status: user.Status})
}

func (s *Service) handleListUsers(w http.ResponseWriter, r *http.Request) {
	var filter types.UserFilter
	if err := decodeQuery(r, &filter); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if filter.Status != "" && !types.UserStatus(filter.Status).Valid() {
		s.writeError(w, r, types.NewValidationError(map[string]string{"status": "unknown user status"}))
		return
	}

	users, err := s.userRepo.Users(r.Context(), &filter)
	if err != nil {
		s.logger.WithError(err).Error("failed to list users")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, users)
}

func (s *Service) handlePatchUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := emailParam(r)
	actor := actorFromContext(ctx)

	var body roleChange
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if !body.Role.Valid() {
		s.writeError(w, r, types.NewValidationError(map[string]string{"role": "unknown role"}))
		return
	}

	// An admin cannot demote themselves.
	if actor == nil || actor.Email == email {
		s.writeError(w, r, types.Denied(types.ReasonForbidden))
		return
	}

	if err := s.userRepo.UpdateRole(ctx, email, body.Role); err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			s.writeError(w, r, s.userNotFound(email))
			return
		}
		s.logger.WithError(err).WithField("email", email).Error("failed to update role")
		s.writeError(w, r, err)
		return
	}

	s.logger.WithFields(logrus.Fields{"email": email, "role": body.Role, "by": actor.Email}).Info("user role changed")

	s.writeJSON(w, http.StatusOK, roleResponse{Role: body.Role})
}

func (s *Service) handlePatchUserStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := emailParam(r)
	actor := actorFromContext(ctx)

	var body statusChange
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if !body.Status.Valid() {
		s.writeError(w, r, types.NewValidationError(map[string]string{"status": "unknown user status"}))
		return
	}

	if actor == nil || actor.Email == email {
		s.writeError(w, r, types.Denied(types.ReasonForbidden))
		return
	}

	if err := s.userRepo.UpdateStatus(ctx, email, body.Status); err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			s.writeError(w, r, s.userNotFound(email))
			return
		}
		s.logger.WithError(err).WithField("email", email).Error("failed to update status")
		s.writeError(w, r, err)
		return
	}

	s.logger.WithFields(logrus.Fields{"email": email, "status": body.Status, "by": actor.Email}).Info("user status changed")

	s.writeJSON(w, http.StatusOK, map[string]types.UserStatus{"status": body.Status})
}

func (s *Service) handleSearchDonors(w http.ResponseWriter, r *http.Request) {
	var search types.DonorSearch
	if err := decodeQuery(r, &search); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if search.BloodGroup != "" && !types.BloodGroup(search.BloodGroup).Valid() {
		s.writeError(w, r, types.NewValidationError(map[string]string{"bloodGroup": "unknown blood group"}))
		return
	}

	donors, err := s.userRepo.SearchDonors(r.Context(), &search)
	if err != nil {
		s.logger.WithError(err).Error("failed to search donors")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donors)
}

package server

import (
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"redaid/pkg/types"
)

// handlePostRegister creates the identity provider account and the local
// profile. The account must be confirmed before the first sign in.
func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body types.RegisterForm
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	if fieldErrs := s.validateRegisterInput(&body); len(fieldErrs) > 0 {
		s.logger.WithField("field_errors", fieldErrs).Info("validation errors during registration")
		s.writeError(w, r, types.NewValidationError(fieldErrs))
		return
	}

	if err := s.provider.SignUp(ctx, body.Email, body.Password, body.Name); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.userRepo.UpsertIdentity(ctx, body.Email, body.Name); err != nil {
		s.logger.WithError(err).WithField("email", body.Email).Error("failed to create user profile")
		s.writeError(w, r, err)
		return
	}

	if err := s.userRepo.UpdateProfile(ctx, body.Email, body.Profile()); err != nil {
		s.logger.WithError(err).WithField("email", body.Email).Error("failed to store user profile")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{
		"email":    body.Email,
		"redirect": "/register/confirm",
	})
}

func (s *Service) handlePostRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	var body types.ConfirmRegisterForm
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	code := strings.TrimSpace(body.Code)
	if email == "" || code == "" {
		s.writeError(w, r, types.NewValidationError(map[string]string{"code": "email and confirmation code are required"}))
		return
	}

	if err := s.provider.ConfirmSignUp(r.Context(), email, code); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"redirect": "/login?confirmed=true"})
}

var (
	hasUpperReg  = regexp.MustCompile(`[A-Z]`)
	hasLowerReg  = regexp.MustCompile(`[a-z]`)
	hasDigitReg  = regexp.MustCompile(`[0-9]`)
	hasSymbolReg = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func (s *Service) validateRegisterInput(form *types.RegisterForm) map[string]string {
	errs := validateProfile(form.Profile(), s.locations)

	if form.Email == "" {
		errs["email"] = "Email is required."
	} else if _, err := mail.ParseAddress(form.Email); err != nil {
		errs["email"] = "Enter a valid email address."
	}

	if form.Password != form.ConfirmPassword {
		errs["confirmPassword"] = "Passwords do not match."
	}

	password := form.Password
	if len(password) < 12 || !hasUpperReg.MatchString(password) || !hasLowerReg.MatchString(password) ||
		!hasDigitReg.MatchString(password) || !hasSymbolReg.MatchString(password) {
		errs["password"] = "Password must be at least 12 characters and include uppercase, lowercase, number, and symbol."
	}

	return errs
}

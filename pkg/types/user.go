package types

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type Role string

const (
	RoleDonor     Role = "donor"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusBlocked
}

type BloodGroup string

var BloodGroups = []BloodGroup{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func (b BloodGroup) Valid() bool {
	for _, g := range BloodGroups {
		if g == b {
			return true
		}
	}
	return false
}

// User is keyed by email. Role and status are only changed by an admin.
type User struct {
	Email      string     `db:"email" json:"email"`
	Name       string     `db:"name" json:"name"`
	AvatarURL  *string    `db:"avatar_url" json:"avatar,omitempty"`
	BloodGroup *string    `db:"blood_group" json:"bloodGroup,omitempty"`
	DistrictID *string    `db:"district_id" json:"district,omitempty"`
	Upazila    *string    `db:"upazila" json:"upazila,omitempty"`
	Status     UserStatus `db:"status" json:"status"`
	Role       Role       `db:"role" json:"role"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

func (u *User) Actor() *Actor {
	if u == nil {
		return nil
	}
	return &Actor{Email: u.Email, Name: u.Name, Role: u.Role, Status: u.Status}
}

// Actor is the identity a lifecycle operation is performed as.
type Actor struct {
	Email  string
	Name   string
	Role   Role
	Status UserStatus
}

func (a *Actor) IsBlocked() bool {
	return a != nil && a.Status == UserStatusBlocked
}

func (a *Actor) HasRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

type UserProfileForm struct {
	Name       string  `json:"name"`
	AvatarURL  *string `json:"avatar"`
	BloodGroup *string `json:"bloodGroup"`
	DistrictID *string `json:"district"`
	Upazila    *string `json:"upazila"`
}

type UserFilter struct {
	Status string `form:"status"`
	Page   uint64 `form:"page"`
	Limit  uint64 `form:"limit"`
}

type DonorSearch struct {
	BloodGroup string `form:"bloodGroup"`
	DistrictID string `form:"district"`
	Upazila    string `form:"upazila"`
}

type RegisterForm struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirmPassword"`
	AvatarURL       *string `json:"avatar"`
	BloodGroup      *string `json:"bloodGroup"`
	DistrictID      *string `json:"district"`
	Upazila         *string `json:"upazila"`
}

func (f *RegisterForm) Profile() *UserProfileForm {
	return &UserProfileForm{
		Name:       f.Name,
		AvatarURL:  f.AvatarURL,
		BloodGroup: f.BloodGroup,
		DistrictID: f.DistrictID,
		Upazila:    f.Upazila,
	}
}

type ConfirmRegisterForm struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenExchangeForm struct {
	IDToken string `json:"idToken"`
}

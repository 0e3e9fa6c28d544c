package types

import (
	"errors"
	"time"
)

var ErrDonationRequestNotFound = errors.New("donation request not found")

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "inprogress"
	RequestStatusDone       RequestStatus = "done"
	RequestStatusCanceled   RequestStatus = "canceled"
)

var RequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusInProgress,
	RequestStatusDone,
	RequestStatusCanceled,
}

func (s RequestStatus) Valid() bool {
	for _, v := range RequestStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s RequestStatus) Terminal() bool {
	return s == RequestStatusDone || s == RequestStatusCanceled
}

type DonationRequest struct {
	ID             string        `db:"id" json:"_id"`
	RequesterName  string        `db:"requester_name" json:"requesterName"`
	RequesterEmail string        `db:"requester_email" json:"requesterEmail"`
	RecipientName  string        `db:"recipient_name" json:"recipientName"`
	DistrictID     string        `db:"district_id" json:"recipientDistrict"`
	Upazila        string        `db:"upazila" json:"recipientUpazila"`
	HospitalName   string        `db:"hospital_name" json:"hospitalName"`
	FullAddress    string        `db:"full_address" json:"fullAddress"`
	BloodGroup     string        `db:"blood_group" json:"bloodGroup"`
	DonationDate   string        `db:"donation_date" json:"donationDate"`
	DonationTime   string        `db:"donation_time" json:"donationTime"`
	Message        *string       `db:"message" json:"requestMessage,omitempty"`
	Status         RequestStatus `db:"status" json:"status"`
	DonorName      *string       `db:"donor_name" json:"donorName,omitempty"`
	DonorEmail     *string       `db:"donor_email" json:"donorEmail,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

func (r *DonationRequest) IsRequester(a *Actor) bool {
	return a != nil && a.Email != "" && a.Email == r.RequesterEmail
}

func (r *DonationRequest) IsDonor(a *Actor) bool {
	return a != nil && a.Email != "" && r.DonorEmail != nil && *r.DonorEmail == a.Email
}

// DonationRequestForm is the payload for creating a request. Requester identity
// is copied from the creating user, never taken from the payload.
type DonationRequestForm struct {
	RecipientName string  `json:"recipientName"`
	DistrictID    string  `json:"recipientDistrict"`
	Upazila       string  `json:"recipientUpazila"`
	HospitalName  string  `json:"hospitalName"`
	FullAddress   string  `json:"fullAddress"`
	BloodGroup    string  `json:"bloodGroup"`
	DonationDate  string  `json:"donationDate"`
	DonationTime  string  `json:"donationTime"`
	Message       *string `json:"requestMessage"`
}

// DonationRequestPatch holds editable fields. Nil fields are left unchanged.
type DonationRequestPatch struct {
	RecipientName *string `json:"recipientName"`
	DistrictID    *string `json:"recipientDistrict"`
	Upazila       *string `json:"recipientUpazila"`
	HospitalName  *string `json:"hospitalName"`
	FullAddress   *string `json:"fullAddress"`
	BloodGroup    *string `json:"bloodGroup"`
	DonationDate  *string `json:"donationDate"`
	DonationTime  *string `json:"donationTime"`
	Message       *string `json:"requestMessage"`
}

func (p *DonationRequestPatch) Empty() bool {
	return p.RecipientName == nil && p.DistrictID == nil && p.Upazila == nil &&
		p.HospitalName == nil && p.FullAddress == nil && p.BloodGroup == nil &&
		p.DonationDate == nil && p.DonationTime == nil && p.Message == nil
}

// Apply copies the set fields of the patch onto r.
func (p *DonationRequestPatch) Apply(r *DonationRequest) {
	if p.RecipientName != nil {
		r.RecipientName = *p.RecipientName
	}
	if p.DistrictID != nil {
		r.DistrictID = *p.DistrictID
	}
	if p.Upazila != nil {
		r.Upazila = *p.Upazila
	}
	if p.HospitalName != nil {
		r.HospitalName = *p.HospitalName
	}
	if p.FullAddress != nil {
		r.FullAddress = *p.FullAddress
	}
	if p.BloodGroup != nil {
		r.BloodGroup = *p.BloodGroup
	}
	if p.DonationDate != nil {
		r.DonationDate = *p.DonationDate
	}
	if p.DonationTime != nil {
		r.DonationTime = *p.DonationTime
	}
	if p.Message != nil {
		r.Message = p.Message
	}
}

type StatusChange struct {
	Status RequestStatus `json:"status"`
}

type DonationRequestFilter struct {
	Status         string `form:"status"`
	RequesterEmail string `form:"requester"`
	Page           uint64 `form:"page"`
	Limit          uint64 `form:"limit"`
}

// RequestEvent records a single status transition of a donation request.
type RequestEvent struct {
	ID         string        `db:"id" json:"id"`
	RequestID  string        `db:"request_id" json:"requestId"`
	FromStatus *string       `db:"from_status" json:"from,omitempty"`
	ToStatus   RequestStatus `db:"to_status" json:"to"`
	ActorEmail string        `db:"actor_email" json:"actor"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}

// DonationRequestView is a request plus the transitions the viewer may trigger.
type DonationRequestView struct {
	*DonationRequest
	AllowedTransitions []RequestStatus `json:"allowedTransitions"`
	CanEdit            bool            `json:"canEdit"`
	CanDelete          bool            `json:"canDelete"`
}

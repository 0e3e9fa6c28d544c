package lifecycle

import (
	"strings"
	"time"

	"redaid/pkg/types"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Locations validates district/upazila pairs against static reference data.
type Locations interface {
	ValidLocation(districtID, upazila string) bool
}

func validateForm(form *types.DonationRequestForm, locations Locations) map[string]string {
	errs := map[string]string{}

	requiredField(errs, "recipientName", form.RecipientName, "Recipient name is required.")
	requiredField(errs, "recipientDistrict", form.DistrictID, "Recipient district is required.")
	requiredField(errs, "recipientUpazila", form.Upazila, "Recipient upazila is required.")
	requiredField(errs, "hospitalName", form.HospitalName, "Hospital name is required.")
	requiredField(errs, "fullAddress", form.FullAddress, "Full address is required.")

	validateBloodGroup(errs, form.BloodGroup)
	validateDate(errs, form.DonationDate)
	validateTime(errs, form.DonationTime)
	validateLocation(errs, locations, form.DistrictID, form.Upazila)

	return errs
}

func validatePatch(patch *types.DonationRequestPatch, merged *types.DonationRequest, locations Locations) map[string]string {
	errs := map[string]string{}

	if patch.Empty() {
		errs["patch"] = "Nothing to update."
		return errs
	}

	if patch.RecipientName != nil {
		requiredField(errs, "recipientName", *patch.RecipientName, "Recipient name is required.")
	}
	if patch.HospitalName != nil {
		requiredField(errs, "hospitalName", *patch.HospitalName, "Hospital name is required.")
	}
	if patch.FullAddress != nil {
		requiredField(errs, "fullAddress", *patch.FullAddress, "Full address is required.")
	}
	if patch.BloodGroup != nil {
		validateBloodGroup(errs, *patch.BloodGroup)
	}
	if patch.DonationDate != nil {
		validateDate(errs, *patch.DonationDate)
	}
	if patch.DonationTime != nil {
		validateTime(errs, *patch.DonationTime)
	}
	if patch.DistrictID != nil || patch.Upazila != nil {
		validateLocation(errs, locations, merged.DistrictID, merged.Upazila)
	}

	return errs
}

func requiredField(errs map[string]string, field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = msg
	}
}

func validateBloodGroup(errs map[string]string, v string) {
	if strings.TrimSpace(v) == "" {
		errs["bloodGroup"] = "Blood group is required."
	} else if !types.BloodGroup(v).Valid() {
		errs["bloodGroup"] = "Select a valid blood group."
	}
}

func validateDate(errs map[string]string, v string) {
	if strings.TrimSpace(v) == "" {
		errs["donationDate"] = "Donation date is required."
	} else if _, err := time.Parse(dateLayout, v); err != nil {
		errs["donationDate"] = "Enter a date as YYYY-MM-DD."
	}
}

func validateTime(errs map[string]string, v string) {
	if strings.TrimSpace(v) == "" {
		errs["donationTime"] = "Donation time is required."
	} else if _, err := time.Parse(timeLayout, v); err != nil {
		errs["donationTime"] = "Enter a time as HH:MM."
	}
}

func validateLocation(errs map[string]string, locations Locations, districtID, upazila string) {
	if locations == nil || districtID == "" || upazila == "" {
		return
	}
	if _, ok := errs["recipientDistrict"]; ok {
		return
	}
	if !locations.ValidLocation(districtID, upazila) {
		errs["recipientUpazila"] = "Upazila does not belong to the selected district."
	}
}

package server

import (
	"net/http"

	"redaid/pkg/types"
)

func (s *Service) handleGetDistricts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.locations.Districts())
}

// handleGetUpazilas lists every upazila, or those of ?district=.
func (s *Service) handleGetUpazilas(w http.ResponseWriter, r *http.Request) {
	upazilas := s.locations.Upazilas(r.URL.Query().Get("district"))
	if upazilas == nil {
		upazilas = []*types.Upazila{}
	}
	s.writeJSON(w, http.StatusOK, upazilas)
}

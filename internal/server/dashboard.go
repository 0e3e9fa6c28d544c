package server

import (
	"fmt"
	"net/http"

	"redaid/pkg/types"

	"golang.org/x/sync/errgroup"
)

func (s *Service) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if !isStaff(actorFromContext(r.Context())) {
		s.writeError(w, r, types.Denied(types.ReasonForbidden))
		return
	}

	var stats types.DashboardStats
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() (err error) {
		stats.TotalDonors, err = s.userRepo.CountDonors(ctx)
		return wrapStat(err, "donors")
	})
	g.Go(func() (err error) {
		stats.TotalRequests, err = s.requestRepo.CountDonationRequests(ctx)
		return wrapStat(err, "donation requests")
	})
	g.Go(func() (err error) {
		stats.TotalFunds, err = s.fundingRepo.TotalFundingCents(ctx)
		return wrapStat(err, "funding")
	})

	if err := g.Wait(); err != nil {
		s.logger.WithError(err).Error("failed to load dashboard stats")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func wrapStat(err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to count %s: %w", what, err)
	}
	return nil
}

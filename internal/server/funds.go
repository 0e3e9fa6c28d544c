package server

import (
	"net/http"

	"redaid/pkg/types"
)

func (s *Service) handleCreateDonateIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body types.DonateIntentForm
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	intent, err := s.payments.CreateIntent(ctx, actorFromContext(ctx), body.AmountCents)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, intent)
}

// handlePostFund records a contribution once the payment gateway reports the
// intent as succeeded. Repeating the call returns the same record.
func (s *Service) handlePostFund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body types.FundConfirmForm
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	record, err := s.payments.Confirm(ctx, actorFromContext(ctx), body.PaymentIntentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Service) handleListFunds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var page types.Page
	if err := decodeQuery(r, &page); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	funds, err := s.fundingRepo.FundingRecords(ctx, &page)
	if err != nil {
		s.logger.WithError(err).Error("failed to list funding records")
		s.writeError(w, r, err)
		return
	}

	total, err := s.fundingRepo.TotalFundingCents(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to total funding records")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, types.FundingSummary{Funds: funds, TotalCents: total})
}

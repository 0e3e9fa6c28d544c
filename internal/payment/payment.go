// Package payment creates donation payment intents with Stripe and turns
// confirmed intents into funding records.
package payment

import (
	"context"
	"fmt"
	"strings"

	"redaid/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v84"
)

type Intents interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	Retrieve(ctx context.Context, id string, params *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error)
}

type Recorder interface {
	CreateFundingRecord(ctx context.Context, record *types.FundingRecord) (*types.FundingRecord, error)
}

type Service struct {
	logger         logrus.FieldLogger
	intents        Intents
	recorder       Recorder
	currency       string
	minAmountCents int64
}

func NewStripeIntents(secretKey string) Intents {
	return stripe.NewClient(secretKey).V1PaymentIntents
}

func New(logger logrus.FieldLogger, intents Intents, recorder Recorder, currency string, minAmountCents int64) *Service {
	return &Service{
		logger:         logger,
		intents:        intents,
		recorder:       recorder,
		currency:       strings.ToLower(currency),
		minAmountCents: minAmountCents,
	}
}

// CreateIntent opens a payment intent for a contribution of amountCents.
func (s *Service) CreateIntent(ctx context.Context, contributor *types.Actor, amountCents int64) (*types.DonateIntent, error) {
	if contributor == nil {
		return nil, types.Denied(types.ReasonUnauthenticated)
	}

	if amountCents < s.minAmountCents {
		return nil, types.NewValidationError(map[string]string{
			"amountCents": fmt.Sprintf("amount must be at least %d", s.minAmountCents),
		})
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:       stripe.Int64(amountCents),
		Currency:     stripe.String(s.currency),
		ReceiptEmail: stripe.String(contributor.Email),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("contributor_email", contributor.Email)
	params.AddMetadata("contributor_name", contributor.Name)

	intent, err := s.intents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &types.DonateIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.Amount,
		Currency:     string(intent.Currency),
	}, nil
}

// Confirm records a funding entry for a succeeded intent. Confirming the
// same intent again returns the record written the first time.
func (s *Service) Confirm(ctx context.Context, contributor *types.Actor, paymentIntentID string) (*types.FundingRecord, error) {
	if contributor == nil {
		return nil, types.Denied(types.ReasonUnauthenticated)
	}

	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, types.NewValidationError(map[string]string{"paymentIntentId": "payment intent id is required"})
	}

	intent, err := s.intents.Retrieve(ctx, paymentIntentID, &stripe.PaymentIntentRetrieveParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent %s: %w", paymentIntentID, err)
	}

	if err := s.checkIntent(intent, contributor); err != nil {
		return nil, err
	}

	record, err := s.recorder.CreateFundingRecord(ctx, &types.FundingRecord{
		ContributorName:  contributor.Name,
		ContributorEmail: contributor.Email,
		AmountCents:      intent.Amount,
		Currency:         string(intent.Currency),
		TransactionID:    intent.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record funding: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": record.TransactionID,
		"amount_cents":   record.AmountCents,
		"contributor":    record.ContributorEmail,
	}).Info("funding recorded")

	return record, nil
}

// checkIntent only accepts intents opened by CreateIntent for this contributor.
// Intents created elsewhere carry no owner and are refused.
func (s *Service) checkIntent(intent *stripe.PaymentIntent, contributor *types.Actor) error {
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return types.NewValidationError(map[string]string{
			"paymentIntentId": fmt.Sprintf("payment has not succeeded (status %s)", intent.Status),
		})
	}

	owner := intent.Metadata["contributor_email"]
	if owner == "" || !strings.EqualFold(owner, contributor.Email) {
		return types.Denied(types.ReasonForbidden)
	}

	if intent.Amount < s.minAmountCents {
		return types.NewValidationError(map[string]string{
			"amountCents": fmt.Sprintf("amount must be at least %d", s.minAmountCents),
		})
	}

	return nil
}

package types

import (
	"errors"
	"time"
)

var ErrFundingRecordNotFound = errors.New("funding record not found")

// FundingRecord is written once, after the payment gateway confirms the charge.
type FundingRecord struct {
	ID               string    `db:"id" json:"_id"`
	ContributorName  string    `db:"contributor_name" json:"name"`
	ContributorEmail string    `db:"contributor_email" json:"email"`
	AmountCents      int64     `db:"amount_cents" json:"amountCents"`
	Currency         string    `db:"currency" json:"currency"`
	TransactionID    string    `db:"transaction_id" json:"transactionId"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

type DonateIntentForm struct {
	AmountCents int64 `json:"amountCents"`
}

type DonateIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
}

type FundConfirmForm struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type FundingSummary struct {
	Funds      []*FundingRecord `json:"funds"`
	TotalCents int64            `json:"totalCents"`
}

type Page struct {
	Page  uint64 `form:"page"`
	Limit uint64 `form:"limit"`
}

type DashboardStats struct {
	TotalDonors   int64 `json:"totalDonor"`
	TotalRequests int64 `json:"totalRequest"`
	TotalFunds    int64 `json:"totalFundCents"`
}

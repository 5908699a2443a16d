package budget

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrInvalidFeePolicy = errors.New("invalid fee policy")

// Payment event kinds
const (
	EventEntryFee    = "entry_fee"
	EventDeliveryFee = "delivery_fee"
	EventInstallment = "installment"
)

// FeePolicy fixes how a total cost is split into fees and installments.
type FeePolicy struct {
	EntryFeeRate               decimal.Decimal
	EntryFeeOffsetDays         int
	DeliveryFeeRate            decimal.Decimal
	DeliveryFeeOffsetDays      int
	FirstInstallmentOffsetDays int
	InstallmentCount           int
}

// DefaultFeePolicy: 10% at 30 days, 10% at 60 days, the remaining 80% in 24 monthly installments from day 90.
var DefaultFeePolicy = FeePolicy{
	EntryFeeRate:               decimal.New(10, -2),
	EntryFeeOffsetDays:         30,
	DeliveryFeeRate:            decimal.New(10, -2),
	DeliveryFeeOffsetDays:      60,
	FirstInstallmentOffsetDays: 90,
	InstallmentCount:           24,
}

// Validate reports whether p can split a total: at least one installment and fee rates within [0, 1] together.
func (p FeePolicy) Validate() error {
	switch {
	case p.InstallmentCount < 1:
		return errors.Wrapf(ErrInvalidFeePolicy, "installment count %d", p.InstallmentCount)
	case p.EntryFeeRate.IsNegative() || p.DeliveryFeeRate.IsNegative():
		return errors.Wrap(ErrInvalidFeePolicy, "negative fee rate")
	case p.EntryFeeRate.Add(p.DeliveryFeeRate).GreaterThan(decimal.NewFromInt(1)):
		return errors.Wrap(ErrInvalidFeePolicy, "fee rates above 100%")
	}
	return nil
}

// Input is what a quote is computed from.
type Input struct {
	Students    int
	UnitCost    decimal.Decimal // per student
	SigningDate Date
}

// YearBucket aggregates the payment events due in one calendar year.
type YearBucket struct {
	Year int `json:"year"`
	// MonthsCount counts payment events (fees and installments), not calendar months.
	MonthsCount int             `json:"months_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// PaymentEvent is a single obligation of the schedule.
type PaymentEvent struct {
	Kind    string          `json:"kind"`
	Number  int             `json:"number"` // 1-based installment number; 0 for fees
	DueDate Date            `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// Schedule is the computed quote. Amounts are unrounded.
type Schedule struct {
	TotalCost        decimal.Decimal `json:"total_cost"`
	EntryFee         decimal.Decimal `json:"entry_fee"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment"`
	InstallmentCount int             `json:"installment_count"`
	YearlyBuckets    []YearBucket    `json:"yearly_buckets"`
	Events           []PaymentEvent  `json:"events"`
}

// IsEmpty reports whether s is the zero-student schedule.
func (s Schedule) IsEmpty() bool {
	return len(s.Events) == 0
}

// BucketsTotal sums the amounts of all year buckets.
func (s Schedule) BucketsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, b := range s.YearlyBuckets {
		total = total.Add(b.TotalAmount)
	}
	return total
}

// EventsCount sums the event counts of all year buckets.
func (s Schedule) EventsCount() int {
	var n int
	for _, b := range s.YearlyBuckets {
		n += b.MonthsCount
	}
	return n
}

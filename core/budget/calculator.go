package budget

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Calculate computes the schedule of in with the DefaultFeePolicy.
func Calculate(in Input) (Schedule, error) {
	return DefaultFeePolicy.Calculate(in)
}

// Calculate turns in into a year-bucketed payment schedule.
// It fails with an *InvalidDateError or ErrInvalidFeePolicy, before computing anything.
// A non-positive student count yields the empty schedule.
func (p FeePolicy) Calculate(in Input) (Schedule, error) {
	if !in.SigningDate.Valid() {
		return Schedule{}, &InvalidDateError{Value: in.SigningDate.String()}
	}
	if err := p.Validate(); err != nil {
		return Schedule{}, err
	}
	if in.Students <= 0 {
		return emptySchedule(p), nil
	}

	total := in.UnitCost.Mul(decimal.NewFromInt(int64(in.Students)))
	entryFee := total.Mul(p.EntryFeeRate)
	deliveryFee := total.Mul(p.DeliveryFeeRate)
	monthly := total.Sub(entryFee).Sub(deliveryFee).Div(decimal.NewFromInt(int64(p.InstallmentCount)))

	events := make([]PaymentEvent, 0, p.InstallmentCount+2)
	events = append(events,
		PaymentEvent{Kind: EventEntryFee, DueDate: in.SigningDate.AddDays(p.EntryFeeOffsetDays), Amount: entryFee},
		PaymentEvent{Kind: EventDeliveryFee, DueDate: in.SigningDate.AddDays(p.DeliveryFeeOffsetDays), Amount: deliveryFee},
	)

	// the anchor fixes the month of installment #1; later ones roll by month, never by day
	anchor := in.SigningDate.AddDays(p.FirstInstallmentOffsetDays)
	for i := 0; i < p.InstallmentCount; i++ {
		events = append(events, PaymentEvent{
			Kind:    EventInstallment,
			Number:  i + 1,
			DueDate: anchor.AddMonths(i),
			Amount:  monthly,
		})
	}

	return Schedule{
		TotalCost:        total,
		EntryFee:         entryFee,
		DeliveryFee:      deliveryFee,
		MonthlyPayment:   monthly,
		InstallmentCount: p.InstallmentCount,
		YearlyBuckets:    bucketByYear(events),
		Events:           events,
	}, nil
}

func emptySchedule(p FeePolicy) Schedule {
	return Schedule{
		TotalCost:        decimal.Zero,
		EntryFee:         decimal.Zero,
		DeliveryFee:      decimal.Zero,
		MonthlyPayment:   decimal.Zero,
		InstallmentCount: p.InstallmentCount,
		YearlyBuckets:    []YearBucket{},
		Events:           []PaymentEvent{},
	}
}

func bucketByYear(events []PaymentEvent) []YearBucket {
	byYear := make(map[int]*YearBucket)
	for _, ev := range events {
		b, ok := byYear[ev.DueDate.Year]
		if !ok {
			b = &YearBucket{Year: ev.DueDate.Year, TotalAmount: decimal.Zero}
			byYear[ev.DueDate.Year] = b
		}
		b.MonthsCount++
		b.TotalAmount = b.TotalAmount.Add(ev.Amount)
	}

	buckets := make([]YearBucket, 0, len(byYear))
	for _, b := range byYear {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Year < buckets[j].Year })
	return buckets
}

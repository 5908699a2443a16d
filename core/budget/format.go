package budget

import (
	"fmt"

	"github.com/go-playground/locales/pt_BR"
	"github.com/shopspring/decimal"
)

const (
	CurrencySymbol = "R$"
	displayPlaces  = 2
)

var ptBR = pt_BR.New()

// Round rounds d half away from zero to 2 places, for display only.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(displayPlaces)
}

// FormatAmount renders d in pt-BR notation: "." groups thousands and "," separates 2 decimals.
func FormatAmount(d decimal.Decimal) string {
	f, _ := Round(d).Float64()
	return ptBR.FmtNumber(f, displayPlaces)
}

// FormatCurrency renders d as "R$ 1.234,56".
func FormatCurrency(d decimal.Decimal) string {
	return CurrencySymbol + " " + FormatAmount(d)
}

// Lines returns the human readable summary of s, one entry per line.
func (s Schedule) Lines() []string {
	lines := []string{
		fmt.Sprintf("10%% - 30 dias: %s", FormatCurrency(s.EntryFee)),
		fmt.Sprintf("10%% - 60 dias: %s", FormatCurrency(s.DeliveryFee)),
		fmt.Sprintf("%dx %s", s.InstallmentCount, FormatCurrency(s.MonthlyPayment)),
	}
	for _, b := range s.YearlyBuckets {
		lines = append(lines, fmt.Sprintf("Total em %d (%d meses): %s", b.Year, b.MonthsCount, FormatCurrency(b.TotalAmount)))
	}
	return append(lines, "Investimento total: "+FormatCurrency(s.TotalCost))
}

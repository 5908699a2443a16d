package budget

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "R$ 0,00"},
		{in: "157500", want: "R$ 157.500,00"},
		{in: "4725000", want: "R$ 4.725.000,00"},
		{in: "1234.5", want: "R$ 1.234,50"},
		{in: "0.005", want: "R$ 0,01"},
		{in: "1312.4999", want: "R$ 1.312,50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestSchedule_Lines(t *testing.T) {
	sched, err := Calculate(Input{Students: 150, UnitCost: unitCost, SigningDate: mustDate(t, "2025-01-01")})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"10% - 30 dias: R$ 472.500,00",
		"10% - 60 dias: R$ 472.500,00",
		"24x R$ 157.500,00",
		"Total em 2025 (11 meses): R$ 2.362.500,00",
		"Total em 2026 (12 meses): R$ 1.890.000,00",
		"Total em 2027 (3 meses): R$ 472.500,00",
		"Investimento total: R$ 4.725.000,00",
	}, sched.Lines())
}

func TestParseStudents(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "", want: 0},
		{in: "150", want: 150},
		{in: "1.500", want: 1500},
		{in: " 12 alunos", want: 12},
		{in: "-5", want: 5},
		{in: "abc", want: 0},
		{in: "99999999999999999999999", want: maxStudents},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStudents(tt.in))
		})
	}
}

func TestQuoteRequest_ToInput(t *testing.T) {
	in, err := QuoteRequest{Students: "150", SigningDate: "2025-01-01"}.ToInput(unitCost)
	require.NoError(t, err)
	assert.Equal(t, 150, in.Students)
	assert.Equal(t, "2025-01-01", in.SigningDate.String())

	_, err = QuoteRequest{Students: "150", SigningDate: "2025-02-30"}.ToInput(unitCost)
	var dateErr *InvalidDateError
	assert.ErrorAs(t, err, &dateErr)
}

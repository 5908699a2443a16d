package budget

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// maxStudents keeps decimal products and the PDF ledger within sane bounds.
const maxStudents = 1_000_000

// QuoteRequest is the raw form input of a quote.
type QuoteRequest struct {
	Students    string `json:"students" query:"students"`
	SigningDate string `json:"signing_date" query:"signing_date" validate:"required"`
}

// ParseStudents keeps only the digits of s; no digits means zero students.
func ParseStudents(s string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n > maxStudents {
		return maxStudents
	}
	return n
}

// ToInput converts r into a calculator Input priced at unitCost.
func (r QuoteRequest) ToInput(unitCost decimal.Decimal) (Input, error) {
	date, err := ParseDate(r.SigningDate)
	if err != nil {
		return Input{}, err
	}
	return Input{
		Students:    ParseStudents(r.Students),
		UnitCost:    unitCost,
		SigningDate: date,
	}, nil
}

package recipient

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/projetodesenvolve/orcamento/core"
)

// Orderable fields
const (
	FieldID         = "id"
	FieldEmail      = "email"
	FieldIsSelected = "is_selected"
	FieldCreatedAt  = "created_at"
)

var (
	OrderableFields = []string{FieldID, FieldEmail, FieldIsSelected, FieldCreatedAt}
	DefaultOrdering = []core.DBOrdering{
		{Field: FieldCreatedAt, Ascending: false},
		{Field: FieldID, Ascending: false},
	}
)

// Recipient is an address proposals may be mailed to.
type Recipient struct {
	ID         int       `json:"id"`
	Email      string    `json:"email"`
	IsSelected bool      `json:"is_selected"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC; zero until first update
}

// NewRecipient contains information needed to register a Recipient.
type NewRecipient struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

func (nr *NewRecipient) Validate(validate *validator.Validate) error {
	nr.Email = core.CleanString(nr.Email, true /* lower */)
	return validate.Struct(nr)
}

// UpdateRecipient toggles whether a Recipient is preselected for dispatch.
type UpdateRecipient struct {
	IsSelected *bool `json:"is_selected" validate:"required"`
}

func (ur UpdateRecipient) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}

type QueryFilter struct {
	Search     string `query:"search"`
	IsSelected *bool  `query:"is_selected"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.Search == "" && qf.IsSelected == nil)
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

package proposal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projetodesenvolve/orcamento/core/budget"
)

// Mail constants
const (
	MailSubject        = "Proposta Institucional - Projeto Desenvolve"
	MailTemplate       = "proposal"
	AttachmentName     = "Proposta_Desenvolve.pdf"
	AttachmentMimeType = "application/pdf"
	RefIDHeader        = "X-Entity-Ref-ID"
)

type (
	// Proposal is everything a rendered document shows.
	Proposal struct {
		Schedule    budget.Schedule
		Students    int
		UnitCost    decimal.Decimal
		SigningDate budget.Date
		IssuedAt    time.Time
	}

	// Renderer turns a Proposal into a printable document.
	Renderer interface {
		Render(ctx context.Context, p Proposal) ([]byte, error)
	}

	// Summary is the optional quote recap shown in the mail body.
	Summary struct {
		Students  int
		TotalCost string
	}

	Dispatch struct {
		Document   []byte
		Recipients []string
		Summary    *Summary
	}

	DispatchResult struct {
		Success     bool     `json:"success"`
		DispatchID  string   `json:"dispatch_id,omitempty"`
		SentTo      []string `json:"sent_to"`
		HiddenCount int      `json:"hidden_count"`
		Detail      string   `json:"detail,omitempty"`
	}
)

// NewProposal builds the Proposal of a computed quote.
func NewProposal(in budget.Input, sched budget.Schedule, issuedAt time.Time) Proposal {
	return Proposal{
		Schedule:    sched,
		Students:    in.Students,
		UnitCost:    in.UnitCost,
		SigningDate: in.SigningDate,
		IssuedAt:    issuedAt,
	}
}

// Summary recaps p for the mail body.
func (p Proposal) Summary() *Summary {
	if p.Schedule.IsEmpty() {
		return nil
	}
	return &Summary{Students: p.Students, TotalCost: budget.FormatCurrency(p.Schedule.TotalCost)}
}

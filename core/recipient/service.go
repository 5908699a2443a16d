package recipient

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/projetodesenvolve/orcamento/core"
)

var (
	ErrNotFound    = errors.New("recipient not found")
	ErrEmailExists = errors.New("this email is already registered")
)

type (
	Repository interface {
		// QueryRecipients applies AND on the set QueryFilter fields.
		// QueryFilter.Search does a case-insensitive substring match on the email.
		QueryRecipients(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Recipient, error)
		GetRecipient(ctx context.Context, id int) (Recipient, error)
		// CreateRecipient returns ErrEmailExists when the email is taken, ignoring case.
		CreateRecipient(ctx context.Context, r Recipient) (Recipient, error)
		UpdateRecipient(ctx context.Context, r Recipient) (Recipient, error)
		DeleteRecipient(ctx context.Context, id int) error
	}

	Service interface {
		List(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Recipient, error)
		Get(ctx context.Context, id int) (Recipient, error)
		Add(ctx context.Context, nr NewRecipient) (Recipient, error)
		SetSelected(ctx context.Context, id int, selected bool) (Recipient, error)
		Remove(ctx context.Context, id int) error
		// SelectedEmails lists the addresses preselected for dispatch.
		SelectedEmails(ctx context.Context) ([]string, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

var nowFunc = time.Now // mockable

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) List(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Recipient, error) {
	ordering = core.FilterOrderings(ordering, OrderableFields...)
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	recipients, err := svc.repo.QueryRecipients(ctx, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying recipients")
	}
	if recipients == nil {
		recipients = []Recipient{}
	}
	return recipients, nil
}

func (svc *service) Get(ctx context.Context, id int) (Recipient, error) {
	return svc.repo.GetRecipient(ctx, id)
}

// Add registers nr, selected by default. nr must be validated.
func (svc *service) Add(ctx context.Context, nr NewRecipient) (Recipient, error) {
	rcpt, err := svc.repo.CreateRecipient(ctx, Recipient{
		Email:      core.CleanString(nr.Email, true /* lower */),
		IsSelected: true,
		CreatedAt:  nowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return Recipient{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return Recipient{}, errors.Wrap(err, "creating recipient")
	}
	return rcpt, nil
}

func (svc *service) SetSelected(ctx context.Context, id int, selected bool) (Recipient, error) {
	rcpt, err := svc.repo.GetRecipient(ctx, id)
	if err != nil {
		return Recipient{}, err
	}
	rcpt.IsSelected = selected
	rcpt.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateRecipient(ctx, rcpt)
}

func (svc *service) Remove(ctx context.Context, id int) error {
	return svc.repo.DeleteRecipient(ctx, id)
}

func (svc *service) SelectedEmails(ctx context.Context) ([]string, error) {
	selected := true
	recipients, err := svc.repo.QueryRecipients(ctx, &QueryFilter{IsSelected: &selected}, DefaultOrdering)
	if err != nil {
		return nil, errors.Wrap(err, "querying selected recipients")
	}
	emails := make([]string, 0, len(recipients))
	for _, r := range recipients {
		emails = append(emails, r.Email)
	}
	return emails, nil
}

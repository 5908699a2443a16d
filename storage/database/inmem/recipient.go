package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/projetodesenvolve/orcamento/core"
	"github.com/projetodesenvolve/orcamento/core/recipient"
)

type recipientRepository struct {
	db *recipientTable
}

var _ recipient.Repository = (*recipientRepository)(nil) // interface compliance check

func NewRecipientRepository(db *DB) recipient.Repository {
	return &recipientRepository{db: db.recipient}
}

func (repo *recipientRepository) query() []recipient.Recipient {
	recipients := make([]recipient.Recipient, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		recipients = append(recipients, *r)
	}
	return recipients
}

func (repo *recipientRepository) QueryRecipients(
	_ context.Context,
	filter *recipient.QueryFilter,
	ordering []core.DBOrdering,
) ([]recipient.Recipient, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recipients := make([]recipient.Recipient, 0, len(repo.db.table))
	for _, r := range repo.query() {
		if matches(r, filter) {
			recipients = append(recipients, r)
		}
	}
	sortRecipients(recipients, ordering)
	return recipients, nil
}

func (repo *recipientRepository) GetRecipient(_ context.Context, id int) (recipient.Recipient, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return *r, nil
	}
	return recipient.Recipient{}, recipient.ErrNotFound
}

func (repo *recipientRepository) CreateRecipient(_ context.Context, rcpt recipient.Recipient) (recipient.Recipient, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range repo.db.table {
		if strings.EqualFold(r.Email, rcpt.Email) {
			return recipient.Recipient{}, recipient.ErrEmailExists
		}
	}

	repo.db.pkSeq++
	rcpt.ID = repo.db.pkSeq
	repo.db.table[rcpt.ID] = &rcpt
	return rcpt, nil
}

func (repo *recipientRepository) UpdateRecipient(_ context.Context, rcpt recipient.Recipient) (recipient.Recipient, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only the selection flag is mutable
	orig, ok := repo.db.table[rcpt.ID]
	if !ok {
		return recipient.Recipient{}, recipient.ErrNotFound
	}
	orig.IsSelected = rcpt.IsSelected
	orig.UpdatedAt = rcpt.UpdatedAt
	return *orig, nil
}

func (repo *recipientRepository) DeleteRecipient(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return recipient.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func matches(r recipient.Recipient, filter *recipient.QueryFilter) bool {
	if filter.IsEmpty() {
		return true
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(r.Email), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.IsSelected != nil && r.IsSelected != *filter.IsSelected {
		return false
	}
	return true
}

func sortRecipients(recipients []recipient.Recipient, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = recipient.DefaultOrdering
	}
	sort.SliceStable(recipients, func(i, j int) bool {
		for _, ord := range ordering {
			c := compare(recipients[i], recipients[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compare(a, b recipient.Recipient, field string) int {
	switch field {
	case recipient.FieldID:
		return a.ID - b.ID
	case recipient.FieldEmail:
		return strings.Compare(a.Email, b.Email)
	case recipient.FieldIsSelected:
		switch {
		case a.IsSelected == b.IsSelected:
			return 0
		case a.IsSelected:
			return 1
		default:
			return -1
		}
	case recipient.FieldCreatedAt:
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/projetodesenvolve/orcamento/core"
	"github.com/projetodesenvolve/orcamento/core/recipient"
)

const (
	recipientTable   = "contact_emails"
	recipientColumns = "id, email, is_selected, created_at, updated_at"

	pqUniqueViolation = "23505"
)

type recipientRow struct {
	ID         int       `db:"id"`
	Email      string    `db:"email"`
	IsSelected bool      `db:"is_selected"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  null.Time `db:"updated_at"`
}

func (row recipientRow) toRecipient() recipient.Recipient {
	return recipient.Recipient{
		ID:         row.ID,
		Email:      row.Email,
		IsSelected: row.IsSelected,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.Time.UTC(),
	}
}

type recipientRepository struct {
	exec core.DBExecutor
}

var _ recipient.Repository = (*recipientRepository)(nil) // interface compliance check

func NewRecipientRepository(exec core.DBExecutor) recipient.Repository {
	return &recipientRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to recipient.ErrNotFound
func (repo recipientRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return recipient.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo recipientRepository) QueryRecipients(
	ctx context.Context,
	filter *recipient.QueryFilter,
	ordering []core.DBOrdering,
) ([]recipient.Recipient, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !filter.IsEmpty() {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			conds = append(conds, fmt.Sprintf("email ILIKE $%d", len(args)))
		}
		if filter.IsSelected != nil {
			args = append(args, *filter.IsSelected)
			conds = append(conds, fmt.Sprintf("is_selected = $%d", len(args)))
		}
	}

	q := fmt.Sprintf("SELECT %s FROM %s", recipientColumns, recipientTable)
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if ordering = core.FilterOrderings(ordering, recipient.OrderableFields...); len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []recipientRow
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying recipients")
	}
	recipients := make([]recipient.Recipient, 0, len(rows))
	for _, row := range rows {
		recipients = append(recipients, row.toRecipient())
	}
	return recipients, nil
}

func (repo recipientRepository) GetRecipient(ctx context.Context, id int) (recipient.Recipient, error) {
	var row recipientRow
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", recipientColumns, recipientTable)
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		return recipient.Recipient{}, repo.trapNoRowsErr(err, "finding recipient by ID")
	}
	return row.toRecipient(), nil
}

func (repo recipientRepository) CreateRecipient(ctx context.Context, rcpt recipient.Recipient) (recipient.Recipient, error) {
	var row recipientRow
	q := fmt.Sprintf(
		"INSERT INTO %s (email, is_selected, created_at) VALUES ($1, $2, $3) RETURNING %s",
		recipientTable, recipientColumns)
	if err := repo.exec.GetContext(ctx, &row, q, rcpt.Email, rcpt.IsSelected, rcpt.CreatedAt.UTC()); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return recipient.Recipient{}, recipient.ErrEmailExists
		}
		return recipient.Recipient{}, errors.Wrap(err, "inserting recipient")
	}
	return row.toRecipient(), nil
}

func (repo recipientRepository) UpdateRecipient(ctx context.Context, rcpt recipient.Recipient) (recipient.Recipient, error) {
	var row recipientRow
	q := fmt.Sprintf(
		"UPDATE %s SET is_selected = $1, updated_at = $2 WHERE id = $3 RETURNING %s",
		recipientTable, recipientColumns)
	updatedAt := null.NewTime(rcpt.UpdatedAt.UTC(), !rcpt.UpdatedAt.IsZero())
	if err := repo.exec.GetContext(ctx, &row, q, rcpt.IsSelected, updatedAt, rcpt.ID); err != nil {
		return recipient.Recipient{}, repo.trapNoRowsErr(err, "updating recipient")
	}
	return row.toRecipient(), nil
}

func (repo recipientRepository) DeleteRecipient(ctx context.Context, id int) error {
	res, err := repo.exec.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", recipientTable), id)
	if err != nil {
		return errors.Wrap(err, "deleting recipient")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting recipient")
	}
	if cnt == 0 {
		return recipient.ErrNotFound
	}
	return nil
}

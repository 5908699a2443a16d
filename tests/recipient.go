package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projetodesenvolve/orcamento/core"
	"github.com/projetodesenvolve/orcamento/core/recipient"
)

func emailsOf(recipients []recipient.Recipient) []string {
	emails := make([]string, 0, len(recipients))
	for _, r := range recipients {
		emails = append(emails, r.Email)
	}
	return emails
}

// TestRecipientRepository checks any recipient.Repository against the expected behaviour.
// reset must leave the repository empty.
func TestRecipientRepository(t *testing.T, repo recipient.Repository, reset func()) {
	ctx := context.Background()
	bPtr := func(b bool) *bool { return &b }

	t.Run("create and get", func(t *testing.T) {
		reset()
		rcpt := CreateRecipient(t, repo, "ana@escola.br", true)
		assert.NotZero(t, rcpt.ID)

		got, err := repo.GetRecipient(ctx, rcpt.ID)
		require.NoError(t, err)
		assert.Equal(t, "ana@escola.br", got.Email)
		assert.True(t, got.IsSelected)
		assert.True(t, got.UpdatedAt.IsZero())

		_, err = repo.GetRecipient(ctx, rcpt.ID+100)
		assert.Equal(t, recipient.ErrNotFound, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		reset()
		CreateRecipient(t, repo, "ana@escola.br", true)
		_, err := repo.CreateRecipient(ctx, recipient.Recipient{Email: "ANA@escola.br", CreatedAt: time.Now().UTC()})
		assert.Equal(t, recipient.ErrEmailExists, err)
	})

	t.Run("query", func(t *testing.T) {
		reset()
		now := time.Now().UTC()
		CreateRecipient(t, repo, "carla@escola.br", true, now.Add(-3*time.Hour))
		CreateRecipient(t, repo, "bruno@prefeitura.gov.br", false, now.Add(-2*time.Hour))
		CreateRecipient(t, repo, "ana@escola.br", true, now.Add(-1*time.Hour))

		tests := []struct {
			name     string
			filter   *recipient.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{
				name: "default ordering", ordering: recipient.DefaultOrdering,
				want: []string{"ana@escola.br", "bruno@prefeitura.gov.br", "carla@escola.br"},
			},
			{
				name: "email asc", ordering: []core.DBOrdering{{Field: recipient.FieldEmail, Ascending: true}},
				want: []string{"ana@escola.br", "bruno@prefeitura.gov.br", "carla@escola.br"},
			},
			{
				name: "created_at asc", ordering: []core.DBOrdering{{Field: recipient.FieldCreatedAt, Ascending: true}},
				want: []string{"carla@escola.br", "bruno@prefeitura.gov.br", "ana@escola.br"},
			},
			{
				name: "search", filter: &recipient.QueryFilter{Search: "ESCOLA"}, ordering: recipient.DefaultOrdering,
				want: []string{"ana@escola.br", "carla@escola.br"},
			},
			{
				name: "selected only", filter: &recipient.QueryFilter{IsSelected: bPtr(true)}, ordering: recipient.DefaultOrdering,
				want: []string{"ana@escola.br", "carla@escola.br"},
			},
			{
				name: "unselected only", filter: &recipient.QueryFilter{IsSelected: bPtr(false)}, ordering: recipient.DefaultOrdering,
				want: []string{"bruno@prefeitura.gov.br"},
			},
			{
				name: "no match", filter: &recipient.QueryFilter{Search: "lol"}, ordering: recipient.DefaultOrdering,
				want: []string{},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.QueryRecipients(ctx, tt.filter, tt.ordering)
				require.NoError(t, err)
				assert.Equal(t, tt.want, emailsOf(got))
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		reset()
		rcpt := CreateRecipient(t, repo, "ana@escola.br", true)
		rcpt.IsSelected = false
		rcpt.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

		got, err := repo.UpdateRecipient(ctx, rcpt)
		require.NoError(t, err)
		assert.False(t, got.IsSelected)
		assert.True(t, rcpt.UpdatedAt.Equal(got.UpdatedAt))

		rcpt.ID += 100
		_, err = repo.UpdateRecipient(ctx, rcpt)
		assert.Equal(t, recipient.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		reset()
		rcpt := CreateRecipient(t, repo, "ana@escola.br", true)
		require.NoError(t, repo.DeleteRecipient(ctx, rcpt.ID))
		assert.Equal(t, recipient.ErrNotFound, repo.DeleteRecipient(ctx, rcpt.ID))

		_, err := repo.GetRecipient(ctx, rcpt.ID)
		assert.Equal(t, recipient.ErrNotFound, err)
	})
}

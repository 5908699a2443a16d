package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/projetodesenvolve/orcamento/core/recipient"
	"github.com/projetodesenvolve/orcamento/storage/database"
)

const postgresImage = "postgres:16-alpine"

// PrepareDB starts a throwaway Postgres container, applies the migrations and returns a connection to it.
// The test is skipped in -short mode or when no container runtime is available.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase("orcamento_test"),
		postgres.WithUsername("orcamento"),
		postgres.WithPassword("orcamento"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{"test": "orcamento", "test-name": t.Name()}),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.OpenURL(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func CreateRecipient(
	t *testing.T,
	repo recipient.Repository,
	email string,
	isSelected bool,
	createdAt ...time.Time,
) recipient.Recipient {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	rcpt, err := repo.CreateRecipient(context.Background(), recipient.Recipient{
		Email:      email,
		IsSelected: isSelected,
		CreatedAt:  tstamp.Truncate(time.Microsecond),
	})
	if err != nil {
		t.Fatalf("CreateRecipient() failed: %v", err)
	}
	return rcpt
}

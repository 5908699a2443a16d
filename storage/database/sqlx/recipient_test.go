package sqlxrepos

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/projetodesenvolve/orcamento/storage/database"
	testutil "github.com/projetodesenvolve/orcamento/tests"
)

func TestRecipientRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	reset := func() { require.NoError(t, database.Truncate(db)) }
	testutil.TestRecipientRepository(t, NewRecipientRepository(db), reset)
}

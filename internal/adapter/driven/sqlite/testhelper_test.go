package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// memoryDSN names an in-memory database after the test so parallel tests never
// share rows. cache=shared lets the writer and reader pools see the same data.
func memoryDSN(t *testing.T) string {
	return fmt.Sprintf("file:adbudget_%s?mode=memory&cache=shared&%s", url.PathEscape(t.Name()), connPragmas)
}

// setupTestDB returns a migrated credential store database private to t.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := open(context.Background(), memoryDSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))
	return db
}

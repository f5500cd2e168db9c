package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaVersion_EmptyDatabase(t *testing.T) {
	db, err := open(context.Background(), memoryDSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	version, err := SchemaVersion(db.Writer)
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, RunMigrations(db.Writer))

	version, err := SchemaVersion(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

func TestPlatformRepo_SeededNewsBreak(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlatformRepo(db)

	p, err := repo.Get(context.Background(), model.PlatformNewsBreak)
	require.NoError(t, err)
	assert.Equal(t, "NewsBreak", p.DisplayName)
	assert.True(t, p.IsActive)
	assert.Contains(t, p.Description, "**NewsBreak**")
	assert.False(t, p.CreatedAt.IsZero())
}

func TestPlatformRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlatformRepo(db)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPlatformRepo_ListActiveSkipsInactive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlatformRepo(db)
	ctx := context.Background()

	_, err := db.Writer.ExecContext(ctx,
		`INSERT INTO platforms (id, display_name, is_active) VALUES ('retired', 'Retired Network', 0), ('acme', 'Acme Ads', 1)`)
	require.NoError(t, err)

	platforms, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, platforms, 2)
	assert.Equal(t, "acme", platforms[0].ID)
	assert.Equal(t, model.PlatformNewsBreak, platforms[1].ID)

	retired, err := repo.Get(ctx, "retired")
	require.NoError(t, err)
	assert.False(t, retired.IsActive)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"fixed width", "2026-10-18T08:09:10.123456789Z"},
		{"sqlite strftime", "2026-10-18T08:09:10.123Z"},
		{"sqlite datetime", "2026-10-18 08:09:10"},
		{"rfc3339", "2026-10-18T08:09:10Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.input)
			require.NoError(t, err)
			assert.Equal(t, 2026, got.Year())
			assert.Equal(t, 8, got.Hour())
		})
	}

	_, err := parseTime("yesterday")
	assert.Error(t, err)
}

func TestFormatTimeSortsLexically(t *testing.T) {
	a := formatTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2026, 1, 1, 0, 0, 0, 500, time.UTC))
	assert.Less(t, a, b)
	assert.Len(t, a, len(b))
}

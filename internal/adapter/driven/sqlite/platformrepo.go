package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
	"github.com/ericfisherdev/adbudget/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PlatformStore = (*PlatformRepo)(nil)

// PlatformRepo is the SQLite implementation of the PlatformStore port interface.
type PlatformRepo struct {
	db *DB
}

// NewPlatformRepo creates a new PlatformRepo backed by the given DB.
func NewPlatformRepo(db *DB) *PlatformRepo {
	return &PlatformRepo{db: db}
}

const platformColumns = `id, display_name, description, logo_url, documentation_url, is_active, created_at, updated_at`

// Get retrieves a platform by id. Returns model.ErrNotFound if it does not exist.
func (r *PlatformRepo) Get(ctx context.Context, id string) (*model.Platform, error) {
	query := `SELECT ` + platformColumns + ` FROM platforms WHERE id = ?`

	platform, err := scanPlatform(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get platform %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get platform %s: %w", id, err)
	}

	return platform, nil
}

// ListActive returns all active platforms ordered by display name.
func (r *PlatformRepo) ListActive(ctx context.Context) ([]model.Platform, error) {
	query := `SELECT ` + platformColumns + ` FROM platforms WHERE is_active = 1 ORDER BY display_name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	defer rows.Close()

	platforms := []model.Platform{}
	for rows.Next() {
		platform, err := scanPlatform(rows)
		if err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		platforms = append(platforms, *platform)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platforms: %w", err)
	}

	return platforms, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlatform(s scanner) (*model.Platform, error) {
	var p model.Platform
	var createdAt, updatedAt string

	err := s.Scan(&p.ID, &p.DisplayName, &p.Description, &p.LogoURL, &p.DocumentationURL, &p.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &p, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

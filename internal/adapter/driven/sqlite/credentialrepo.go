package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
	"github.com/ericfisherdev/adbudget/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// credentialColumns is the column list shared by every query that returns a
// credential without its secret material. Order must match scanCredential.
const credentialColumns = `id, owner_id, platform_id, name, external_account_ids, account_email, status,
	token_expires_at, last_validated_at, last_used_at, last_error_message, created_at, updated_at`

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// It stores sealed secrets as produced by the token cipher and never sees plaintext.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Insert persists a new credential with a generated UUID.
func (r *CredentialRepo) Insert(ctx context.Context, cred model.Credential, sealed model.SealedSecret) (*model.Credential, error) {
	cred.ID = uuid.NewString()

	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	cred.UpdatedAt = cred.CreatedAt
	if cred.Status == "" {
		cred.Status = model.CredentialStatusActive
	}

	accountIDs, err := encodeAccountIDs(cred.ExternalAccountIDs)
	if err != nil {
		return nil, err
	}

	const query = `INSERT INTO credentials (
		id, owner_id, platform_id, name, encrypted_payload, iv, external_account_ids, account_email,
		status, token_expires_at, last_error_message, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Writer.ExecContext(ctx, query,
		cred.ID, cred.OwnerID, cred.PlatformID, cred.Name, sealed.Payload, sealed.IV, accountIDs, cred.AccountEmail,
		string(cred.Status), formatNullTime(cred.TokenExpiresAt), cred.LastErrorMessage,
		formatTime(cred.CreatedAt), formatTime(cred.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert credential: %w", err)
	}

	return &cred, nil
}

// ListByOwner returns the owner's credentials ordered newest first.
func (r *CredentialRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Get returns a single credential owned by ownerID.
func (r *CredentialRepo) Get(ctx context.Context, id, ownerID string) (*model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = ? AND owner_id = ?`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get credential %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}
	return cred, nil
}

// GetSealed returns a credential together with its sealed secret.
func (r *CredentialRepo) GetSealed(ctx context.Context, id, ownerID string) (*model.Credential, model.SealedSecret, error) {
	query := `SELECT ` + credentialColumns + `, encrypted_payload, iv FROM credentials WHERE id = ? AND owner_id = ?`

	var sealed model.SealedSecret
	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id, ownerID), &sealed.Payload, &sealed.IV)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.SealedSecret{}, fmt.Errorf("get credential %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, model.SealedSecret{}, fmt.Errorf("get credential %s: %w", id, err)
	}
	return cred, sealed, nil
}

// Update applies a single-row field set keyed by id and owner. When
// u.RequireStatusIn is set the update only matches rows in one of those statuses.
func (r *CredentialRepo) Update(ctx context.Context, id, ownerID string, u driven.CredentialUpdate) (*model.Credential, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.Sealed != nil {
		set("encrypted_payload", u.Sealed.Payload)
		set("iv", u.Sealed.IV)
	}
	if u.ExternalAccountIDs != nil {
		encoded, err := encodeAccountIDs(*u.ExternalAccountIDs)
		if err != nil {
			return nil, err
		}
		set("external_account_ids", encoded)
	}
	if u.AccountEmail != nil {
		set("account_email", *u.AccountEmail)
	}
	switch {
	case u.ClearTokenExpiresAt:
		set("token_expires_at", formatNullTime(nil))
	case u.TokenExpiresAt != nil:
		set("token_expires_at", formatNullTime(u.TokenExpiresAt))
	}
	if u.Status != nil {
		set("status", string(*u.Status))
	}
	if u.LastErrorMessage != nil {
		set("last_error_message", *u.LastErrorMessage)
	}
	if u.LastValidatedAt != nil {
		set("last_validated_at", formatNullTime(u.LastValidatedAt))
	}
	if u.LastUsedAt != nil {
		set("last_used_at", formatNullTime(u.LastUsedAt))
	}
	if !u.UpdatedAt.IsZero() {
		set("updated_at", formatTime(u.UpdatedAt))
	}

	if len(sets) == 0 {
		return r.Get(ctx, id, ownerID)
	}

	query := `UPDATE credentials SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND owner_id = ?`
	args = append(args, id, ownerID)

	if len(u.RequireStatusIn) > 0 {
		placeholders := make([]string, len(u.RequireStatusIn))
		for i, status := range u.RequireStatusIn {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` RETURNING ` + credentialColumns

	cred, err := scanCredential(r.db.Writer.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := r.Get(ctx, id, ownerID)
		if getErr != nil {
			return nil, fmt.Errorf("update credential %s: %w", id, getErr)
		}
		return nil, fmt.Errorf("update credential %s: status is %s: %w", id, existing.Status, driven.ErrStatusConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("update credential %s: %w", id, err)
	}

	return cred, nil
}

// scanCredential reads the credentialColumns in order, followed by any extra
// destinations the caller appended to the select list.
func scanCredential(s scanner, extra ...any) (*model.Credential, error) {
	var cred model.Credential
	var status, createdAt, updatedAt string
	var accountIDs, expiresAt, validatedAt, usedAt sql.NullString

	dest := []any{
		&cred.ID, &cred.OwnerID, &cred.PlatformID, &cred.Name, &accountIDs, &cred.AccountEmail, &status,
		&expiresAt, &validatedAt, &usedAt, &cred.LastErrorMessage, &createdAt, &updatedAt,
	}
	dest = append(dest, extra...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	cred.Status = model.CredentialStatus(status)

	var err error
	if cred.ExternalAccountIDs, err = decodeAccountIDs(accountIDs); err != nil {
		return nil, err
	}
	if cred.TokenExpiresAt, err = parseNullTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse token_expires_at: %w", err)
	}
	if cred.LastValidatedAt, err = parseNullTime(validatedAt); err != nil {
		return nil, fmt.Errorf("parse last_validated_at: %w", err)
	}
	if cred.LastUsedAt, err = parseNullTime(usedAt); err != nil {
		return nil, fmt.Errorf("parse last_used_at: %w", err)
	}
	if cred.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if cred.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cred, nil
}

// encodeAccountIDs stores the ordered account id list as a JSON array, or NULL when empty.
func encodeAccountIDs(ids []string) (sql.NullString, error) {
	if len(ids) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode external account ids: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeAccountIDs(v sql.NullString) ([]string, error) {
	if !v.Valid || v.String == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(v.String), &ids); err != nil {
		return nil, fmt.Errorf("decode external account ids: %w", err)
	}
	return ids, nil
}

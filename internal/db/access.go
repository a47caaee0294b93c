package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/odaliasengell/neurolog-app-sub000/internal/ctxutil"
	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
)

// GrantAccess upserts the relation row keyed by (user_id, child_id).
// Granting to an already-related pair replaces the relationship and flags,
// never duplicates. Idempotent, safe to retry.
func GrantAccess(ctx context.Context, database *sql.DB, a models.ChildAccess) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		INSERT INTO child_access (user_id, child_id, relationship, can_edit, can_view, can_export, granted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, child_id) DO UPDATE SET
			relationship = excluded.relationship,
			can_edit = excluded.can_edit,
			can_view = excluded.can_view,
			can_export = excluded.can_export,
			granted_by = excluded.granted_by
	`, a.UserID, a.ChildID, string(a.Relationship), a.CanEdit, a.CanView, a.CanExport, a.GrantedBy)
	return err
}

// RevokeAccess removes the relation row. Revoking an absent relation is a
// no-op, not an error, so retries are safe.
func RevokeAccess(ctx context.Context, database *sql.DB, childID, userID uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		DELETE FROM child_access WHERE child_id = $1 AND user_id = $2
	`, childID, userID)
	return err
}

// GetAccess returns the relation row for (userID, childID), or (nil, nil)
// when there is none — absence is a valid low-privilege state.
func GetAccess(ctx context.Context, database *sql.DB, userID, childID uuid.UUID) (*models.ChildAccess, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT id, user_id, child_id, relationship, can_edit, can_view, can_export, granted_by, created_at
		FROM child_access WHERE user_id = $1 AND child_id = $2
	`, userID, childID)

	var a models.ChildAccess
	var rel string
	err := row.Scan(&a.ID, &a.UserID, &a.ChildID, &rel, &a.CanEdit, &a.CanView, &a.CanExport, &a.GrantedBy, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Relationship = models.Relationship(rel)
	return &a, nil
}

// AccessMember is one row of the sharing dialog: who has which standing on
// a child.
type AccessMember struct {
	models.ChildAccess
	UserName  string
	UserEmail string
}

func ListAccessForChild(ctx context.Context, database *sql.DB, childID uuid.UUID) ([]AccessMember, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT ca.id, ca.user_id, ca.child_id, ca.relationship, ca.can_edit, ca.can_view, ca.can_export,
		       ca.granted_by, ca.created_at, u.name, u.email
		FROM child_access ca
		JOIN users u ON u.id = ca.user_id
		WHERE ca.child_id = $1
		ORDER BY ca.created_at
	`, childID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []AccessMember
	for rows.Next() {
		var m AccessMember
		var rel string
		if err := rows.Scan(&m.ID, &m.UserID, &m.ChildID, &rel, &m.CanEdit, &m.CanView, &m.CanExport,
			&m.GrantedBy, &m.CreatedAt, &m.UserName, &m.UserEmail); err != nil {
			return nil, err
		}
		m.Relationship = models.Relationship(rel)
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountAccessRows is used by the stats job.
func CountAccessRows(ctx context.Context, database *sql.DB) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int64
	err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM child_access`).Scan(&n)
	return n, err
}

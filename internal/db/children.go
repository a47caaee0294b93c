package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/odaliasengell/neurolog-app-sub000/internal/ctxutil"
	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
)

func CreateChild(ctx context.Context, database *sql.DB, c models.Child) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		INSERT INTO children (id, name, birth_date, notes, created_by, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
	`, c.ID, c.Name, c.BirthDate, c.Notes, c.CreatedBy)
	return err
}

// GetChildForUser loads one active child together with the caller's own
// relation row, if any. Returns (nil, nil) when the child does not exist or
// is inactive.
func GetChildForUser(ctx context.Context, database *sql.DB, childID, userID uuid.UUID) (*models.ChildWithAccess, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.birth_date, c.notes, c.created_by, c.is_active, c.created_at, c.updated_at,
		       ca.id, ca.user_id, ca.child_id, ca.relationship, ca.can_edit, ca.can_view, ca.can_export, ca.granted_by, ca.created_at
		FROM children c
		LEFT JOIN child_access ca ON ca.child_id = c.id AND ca.user_id = $2
		WHERE c.id = $1 AND c.is_active = TRUE
	`, childID, userID)

	cw, err := scanChildWithAccess(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return cw, err
}

// ListChildrenForUser returns the active children the user owns or has a
// relation to, each annotated with the user's relation row. Owned children
// typically carry no row; the permission layer resolves owners to full
// rights on its own.
func ListChildrenForUser(ctx context.Context, database *sql.DB, userID uuid.UUID) ([]models.ChildWithAccess, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT c.id, c.name, c.birth_date, c.notes, c.created_by, c.is_active, c.created_at, c.updated_at,
		       ca.id, ca.user_id, ca.child_id, ca.relationship, ca.can_edit, ca.can_view, ca.can_export, ca.granted_by, ca.created_at
		FROM children c
		LEFT JOIN child_access ca ON ca.child_id = c.id AND ca.user_id = $1
		WHERE c.is_active = TRUE AND (c.created_by = $1 OR ca.user_id IS NOT NULL)
		ORDER BY c.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ChildWithAccess
	for rows.Next() {
		cw, err := scanChildWithAccess(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cw)
	}
	return out, rows.Err()
}

func UpdateChild(ctx context.Context, database *sql.DB, c models.Child) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		UPDATE children SET name = $2, birth_date = $3, notes = $4, updated_at = now()
		WHERE id = $1 AND is_active = TRUE
	`, c.ID, c.Name, c.BirthDate, c.Notes)
	return err
}

// SoftDeleteChild flags the child inactive. Nothing is ever physically
// removed on this path.
func SoftDeleteChild(ctx context.Context, database *sql.DB, childID uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		UPDATE children SET is_active = FALSE, updated_at = now() WHERE id = $1
	`, childID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChildWithAccess(row rowScanner) (*models.ChildWithAccess, error) {
	var cw models.ChildWithAccess
	var (
		relID        sql.NullInt64
		relUser      uuid.NullUUID
		relChild     uuid.NullUUID
		relType      sql.NullString
		canEdit      sql.NullBool
		canView      sql.NullBool
		canExport    sql.NullBool
		grantedBy    uuid.NullUUID
		relCreatedAt sql.NullTime
	)
	err := row.Scan(
		&cw.ID, &cw.Name, &cw.BirthDate, &cw.Notes, &cw.CreatedBy, &cw.IsActive, &cw.CreatedAt, &cw.UpdatedAt,
		&relID, &relUser, &relChild, &relType, &canEdit, &canView, &canExport, &grantedBy, &relCreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if relID.Valid {
		cw.Access = &models.ChildAccess{
			ID:           relID.Int64,
			UserID:       relUser.UUID,
			ChildID:      relChild.UUID,
			Relationship: models.Relationship(relType.String),
			CanEdit:      canEdit.Bool,
			CanView:      canView.Bool,
			CanExport:    canExport.Bool,
			GrantedBy:    grantedBy.UUID,
			CreatedAt:    relCreatedAt.Time,
		}
	}
	return &cw, nil
}

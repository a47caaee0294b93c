package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/odaliasengell/neurolog-app-sub000/internal/ctxutil"
	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
)

func CreateLog(ctx context.Context, database *sql.DB, e models.LogEntry) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		INSERT INTO daily_logs (id, child_id, logged_by, log_date, category, title, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.ChildID, e.LoggedBy, e.LogDate, e.Category, e.Title, e.Description)
	return err
}

func GetLogByID(ctx context.Context, database *sql.DB, id uuid.UUID) (*models.LogEntry, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT id, child_id, logged_by, log_date, category, title, description, created_at, updated_at
		FROM daily_logs WHERE id = $1
	`, id)

	var e models.LogEntry
	err := row.Scan(&e.ID, &e.ChildID, &e.LoggedBy, &e.LogDate, &e.Category, &e.Title, &e.Description,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListLogsForChild returns the child's logs inside [from, to], newest first.
// Zero bounds mean unbounded.
func ListLogsForChild(ctx context.Context, database *sql.DB, childID uuid.UUID, from, to time.Time) ([]models.LogEntry, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if from.IsZero() {
		from = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	rows, err := database.QueryContext(ctx, `
		SELECT id, child_id, logged_by, log_date, category, title, description, created_at, updated_at
		FROM daily_logs
		WHERE child_id = $1 AND log_date >= $2 AND log_date <= $3
		ORDER BY log_date DESC, created_at DESC
	`, childID, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.ChildID, &e.LoggedBy, &e.LogDate, &e.Category, &e.Title,
			&e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func UpdateLog(ctx context.Context, database *sql.DB, e models.LogEntry) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		UPDATE daily_logs
		SET log_date = $2, category = $3, title = $4, description = $5, updated_at = now()
		WHERE id = $1
	`, e.ID, e.LogDate, e.Category, e.Title, e.Description)
	return err
}

// CountChildren / CountLogs feed the stats job gauges.
func CountChildren(ctx context.Context, database *sql.DB) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int64
	err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM children WHERE is_active = TRUE`).Scan(&n)
	return n, err
}

func CountLogs(ctx context.Context, database *sql.DB) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int64
	err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_logs`).Scan(&n)
	return n, err
}

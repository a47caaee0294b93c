package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/odaliasengell/neurolog-app-sub000/internal/ctxutil"
	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
)

func CreateUser(ctx context.Context, database *sql.DB, u models.User) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, api_token, telegram_chat_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	`, u.ID, u.Email, u.Name, string(u.Role), nullStr(u.APIToken), u.TelegramChatID)
	return err
}

func GetUserByID(ctx context.Context, database *sql.DB, id uuid.UUID) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT id, email, name, role, COALESCE(api_token, ''), telegram_chat_id, is_active, created_at
		FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetUserByToken resolves a bearer token to its user. Returns (nil, nil)
// when the token matches nobody.
func GetUserByToken(ctx context.Context, database *sql.DB, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT id, email, name, role, COALESCE(api_token, ''), telegram_chat_id, is_active, created_at
		FROM users WHERE api_token = $1 AND is_active = TRUE
	`, token)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// SetUserRole is the administrative path for role changes; ordinary flows
// never touch the role column.
func SetUserRole(ctx context.Context, database *sql.DB, id uuid.UUID, role models.Role) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx,
		`UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
	return err
}

// UpdateUserProfile changes the fields a user may edit on themselves.
func UpdateUserProfile(ctx context.Context, database *sql.DB, id uuid.UUID, name string, telegramChatID *int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx,
		`UPDATE users SET name = $2, telegram_chat_id = $3 WHERE id = $1`,
		id, name, telegramChatID)
	return err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.APIToken,
		&u.TelegramChatID, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

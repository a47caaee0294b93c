package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odaliasengell/neurolog-app-sub000/internal/db"
	"github.com/odaliasengell/neurolog-app-sub000/internal/export"
	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
	"github.com/odaliasengell/neurolog-app-sub000/internal/perm"
)

type LogService struct {
	database *sql.DB
	log      *zap.SugaredLogger
}

func NewLogService(database *sql.DB, log *zap.SugaredLogger) *LogService {
	return &LogService{database: database, log: log}
}

// loadViewableChild resolves the child non-leakingly: absent and
// not-viewable both come back as ErrNotFound.
func (s *LogService) loadViewableChild(ctx context.Context, c *perm.Checker, actor *models.User, childID uuid.UUID) (*models.ChildWithAccess, error) {
	cw, err := db.GetChildForUser(ctx, s.database, childID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	if cw == nil || !decide(perm.LogsReadAccessible, c.CanReadLogs(*cw)) {
		return nil, ErrNotFound
	}
	return cw, nil
}

type CreateLogInput struct {
	ChildID     uuid.UUID
	LogDate     time.Time
	Category    string
	Title       string
	Description string
}

func (s *LogService) Create(ctx context.Context, actor *models.User, in CreateLogInput) (*models.LogEntry, error) {
	c, err := checkerFor(actor)
	if err != nil {
		return nil, err
	}
	cw, err := s.loadViewableChild(ctx, c, actor, in.ChildID)
	if err != nil {
		return nil, err
	}
	if !decide(perm.LogsCreateEditable, c.CanCreateLog(*cw)) {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: log title is required", ErrValidation)
	}
	if in.LogDate.IsZero() {
		return nil, fmt.Errorf("%w: log date is required", ErrValidation)
	}

	entry := models.LogEntry{
		ID:          uuid.New(),
		ChildID:     in.ChildID,
		LoggedBy:    actor.ID,
		LogDate:     in.LogDate,
		Category:    in.Category,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
	}
	if err := db.CreateLog(ctx, s.database, entry); err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}
	return &entry, nil
}

func (s *LogService) List(ctx context.Context, actor *models.User, childID uuid.UUID, from, to time.Time) ([]models.LogEntry, error) {
	c, err := checkerFor(actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadViewableChild(ctx, c, actor, childID); err != nil {
		return nil, err
	}
	entries, err := db.ListLogsForChild(ctx, s.database, childID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return entries, nil
}

type UpdateLogInput struct {
	LogDate     time.Time
	Category    string
	Title       string
	Description string
}

// Update edits one log entry. Only whoever recorded the entry may edit it;
// the child's relation flags do not apply here.
func (s *LogService) Update(ctx context.Context, actor *models.User, logID uuid.UUID, in UpdateLogInput) (*models.LogEntry, error) {
	c, err := checkerFor(actor)
	if err != nil {
		return nil, err
	}
	entry, err := db.GetLogByID(ctx, s.database, logID)
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	// The actor must still be able to see the child at all.
	if _, err := s.loadViewableChild(ctx, c, actor, entry.ChildID); err != nil {
		return nil, err
	}
	if !decide(perm.LogsUpdateOwn, c.CanEditLog(entry.LoggedBy)) {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: log title is required", ErrValidation)
	}
	if in.LogDate.IsZero() {
		return nil, fmt.Errorf("%w: log date is required", ErrValidation)
	}

	entry.LogDate = in.LogDate
	entry.Category = in.Category
	entry.Title = strings.TrimSpace(in.Title)
	entry.Description = in.Description
	if err := db.UpdateLog(ctx, s.database, *entry); err != nil {
		return nil, fmt.Errorf("update log: %w", err)
	}
	return entry, nil
}

// Export builds the xlsx workbook of the child's logs for download.
func (s *LogService) Export(ctx context.Context, actor *models.User, childID uuid.UUID, from, to time.Time) ([]byte, string, error) {
	c, err := checkerFor(actor)
	if err != nil {
		return nil, "", err
	}
	cw, err := s.loadViewableChild(ctx, c, actor, childID)
	if err != nil {
		return nil, "", err
	}
	if !decide(perm.LogsExportExportable, c.CanExportLogs(*cw)) {
		return nil, "", ErrUnauthorized
	}
	entries, err := db.ListLogsForChild(ctx, s.database, childID, from, to)
	if err != nil {
		return nil, "", fmt.Errorf("list logs: %w", err)
	}

	f, err := export.BuildLogsWorkbook(cw.Name, entries)
	if err != nil {
		return nil, "", fmt.Errorf("build workbook: %w", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}
	s.log.Infow("logs exported", "child_id", childID, "rows", len(entries), "by", actor.ID)
	return buf.Bytes(), export.LogsFilename(cw.Name), nil
}

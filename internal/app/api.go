package app

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odaliasengell/neurolog-app-sub000/internal/config"
	"github.com/odaliasengell/neurolog-app-sub000/internal/ctxutil"
	"github.com/odaliasengell/neurolog-app-sub000/internal/db"
	"github.com/odaliasengell/neurolog-app-sub000/internal/metrics"
	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
	"github.com/odaliasengell/neurolog-app-sub000/internal/observability"
	"github.com/odaliasengell/neurolog-app-sub000/internal/perm"
	"github.com/odaliasengell/neurolog-app-sub000/internal/service"
)

// API is the JSON surface the dashboard calls. Every handler resolves the
// bearer token to a user and goes through the service layer; the service
// layer re-checks permissions, so the API never is the only gate.
type API struct {
	database *sql.DB
	cfg      *config.Config
	children *service.ChildService
	logs     *service.LogService
	limiter  *UserLimiter
	log      *zap.SugaredLogger
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/me", a.auth(a.handleMe))
	mux.HandleFunc("PATCH /api/v1/me", a.auth(a.handleUpdateMe))
	mux.HandleFunc("PATCH /api/v1/users/{id}/role", a.auth(a.mutating(a.handleSetUserRole)))

	mux.HandleFunc("POST /api/v1/children", a.auth(a.mutating(a.handleCreateChild)))
	mux.HandleFunc("GET /api/v1/children", a.auth(a.handleListChildren))
	mux.HandleFunc("GET /api/v1/children/{id}", a.auth(a.handleGetChild))
	mux.HandleFunc("PATCH /api/v1/children/{id}", a.auth(a.mutating(a.handleUpdateChild)))
	mux.HandleFunc("DELETE /api/v1/children/{id}", a.auth(a.mutating(a.handleDeleteChild)))

	mux.HandleFunc("GET /api/v1/children/{id}/access", a.auth(a.handleMembers))
	mux.HandleFunc("POST /api/v1/children/{id}/access", a.auth(a.mutating(a.handleShare)))
	mux.HandleFunc("DELETE /api/v1/children/{id}/access/{userID}", a.auth(a.mutating(a.handleRevoke)))

	mux.HandleFunc("POST /api/v1/children/{id}/logs", a.auth(a.mutating(a.handleCreateLog)))
	mux.HandleFunc("GET /api/v1/children/{id}/logs", a.auth(a.handleListLogs))
	mux.HandleFunc("GET /api/v1/children/{id}/logs/export", a.auth(a.handleExportLogs))
	mux.HandleFunc("PATCH /api/v1/logs/{id}", a.auth(a.mutating(a.handleUpdateLog)))
}

type userHandler func(w http.ResponseWriter, r *http.Request, user *models.User)

// auth resolves "Authorization: Bearer <token>" against the users table.
// Unknown or missing tokens get 401 before any handler runs.
func (a *API) auth(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		user, err := db.GetUserByToken(r.Context(), a.database, token)
		if err != nil {
			a.writeErr(w, r, fmt.Errorf("resolve token: %w", err))
			return
		}
		if user == nil {
			a.writeStatus(w, r, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		// ADMIN_IDS force-promotes the listed accounts regardless of the
		// stored role.
		if a.cfg != nil && a.cfg.IsAdmin(user.ID) {
			user.Role = models.RoleAdmin
		}
		r = r.WithContext(ctxutil.WithUserID(r.Context(), user.ID))
		next(w, r, user)
	}
}

// mutating serializes writes per user.
func (a *API) mutating(next userHandler) userHandler {
	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		unlock := a.limiter.lock(user.ID)
		defer unlock()
		next(w, r, user)
	}
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request, user *models.User) {
	c := perm.NewChecker(user)
	a.writeJSON(w, r, http.StatusOK, map[string]any{
		"id":               user.ID,
		"email":            user.Email,
		"name":             user.Name,
		"role":             user.Role,
		"can_create_child": c.CanCreateChild(),
	})
}

func (a *API) handleUpdateMe(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in struct {
		Name           string `json:"name"`
		TelegramChatID *int64 `json:"telegram_chat_id"`
	}
	if !a.decode(w, r, &in) {
		return
	}
	ctx := perm.Context{ActorRole: user.Role, ActorID: user.ID, ResourceOwnerID: user.ID}
	if !perm.IsAllowed(perm.ProfileUpdateOwn, ctx) {
		a.writeErr(w, r, service.ErrUnauthorized)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		a.writeErr(w, r, fmt.Errorf("%w: name is required", service.ErrValidation))
		return
	}
	if err := db.UpdateUserProfile(r.Context(), a.database, user.ID, strings.TrimSpace(in.Name), in.TelegramChatID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeStatus(w, r, http.StatusOK, "ok")
}

// handleSetUserRole is the administrative path for role changes; ordinary
// users cannot reach it.
func (a *API) handleSetUserRole(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		Role string `json:"role"`
	}
	if !a.decode(w, r, &in) {
		return
	}
	if !perm.NewChecker(user).HasRole(models.RoleAdmin) {
		a.writeErr(w, r, service.ErrUnauthorized)
		return
	}
	role := models.Role(in.Role)
	if !role.Valid() {
		a.writeErr(w, r, fmt.Errorf("%w: unknown role %q", service.ErrValidation, in.Role))
		return
	}
	if err := db.SetUserRole(r.Context(), a.database, id, role); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.log.Infow("role changed", "target", id, "role", role, "by", user.ID)
	a.writeStatus(w, r, http.StatusOK, "ok")
}

type childDTO struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	BirthDate       *time.Time           `json:"birth_date,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	CreatedBy       uuid.UUID            `json:"created_by"`
	PermissionLevel perm.PermissionLevel `json:"permission_level"`
	CanEdit         bool                 `json:"can_edit"`
	CanShare        bool                 `json:"can_share"`
	CanDelete       bool                 `json:"can_delete"`
	CanExport       bool                 `json:"can_export"`
}

func childToDTO(user *models.User, cw models.ChildWithAccess) childDTO {
	c := perm.NewChecker(user)
	return childDTO{
		ID:              cw.ID,
		Name:            cw.Name,
		BirthDate:       cw.BirthDate,
		Notes:           cw.Notes,
		CreatedBy:       cw.CreatedBy,
		PermissionLevel: c.PermissionLevel(cw),
		CanEdit:         c.CanEditChild(cw),
		CanShare:        c.CanShareChild(cw),
		CanDelete:       c.CanDeleteChild(cw),
		CanExport:       c.CanExportLogs(cw),
	}
}

func (a *API) handleCreateChild(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in struct {
		Name      string     `json:"name"`
		BirthDate *time.Time `json:"birth_date"`
		Notes     string     `json:"notes"`
	}
	if !a.decode(w, r, &in) {
		return
	}
	child, err := a.children.Create(r.Context(), user, service.CreateChildInput{
		Name: in.Name, BirthDate: in.BirthDate, Notes: in.Notes,
	})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusCreated, childToDTO(user, models.ChildWithAccess{Child: *child}))
}

func (a *API) handleListChildren(w http.ResponseWriter, r *http.Request, user *models.User) {
	list, err := a.children.List(r.Context(), user)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	out := make([]childDTO, 0, len(list))
	for _, cw := range list {
		out = append(out, childToDTO(user, cw))
	}
	a.writeJSON(w, r, http.StatusOK, out)
}

func (a *API) handleGetChild(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	cw, err := a.children.Get(r.Context(), user, id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, childToDTO(user, *cw))
}

func (a *API) handleUpdateChild(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		Name      string     `json:"name"`
		BirthDate *time.Time `json:"birth_date"`
		Notes     string     `json:"notes"`
	}
	if !a.decode(w, r, &in) {
		return
	}
	cw, err := a.children.Update(r.Context(), user, id, service.UpdateChildInput{
		Name: in.Name, BirthDate: in.BirthDate, Notes: in.Notes,
	})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, childToDTO(user, *cw))
}

func (a *API) handleDeleteChild(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.children.Delete(r.Context(), user, id); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeStatus(w, r, http.StatusOK, "deleted")
}

func (a *API) handleMembers(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	members, err := a.children.Members(r.Context(), user, id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	type memberDTO struct {
		UserID       uuid.UUID           `json:"user_id"`
		Name         string              `json:"name"`
		Email        string              `json:"email"`
		Relationship models.Relationship `json:"relationship"`
		CanEdit      bool                `json:"can_edit"`
		CanView      bool                `json:"can_view"`
		CanExport    bool                `json:"can_export"`
	}
	out := make([]memberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, memberDTO{
			UserID: m.UserID, Name: m.UserName, Email: m.UserEmail,
			Relationship: m.Relationship,
			CanEdit:      m.CanEdit, CanView: m.CanView, CanExport: m.CanExport,
		})
	}
	a.writeJSON(w, r, http.StatusOK, out)
}

func (a *API) handleShare(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		GranteeID    uuid.UUID `json:"grantee_id"`
		Relationship string    `json:"relationship"`
		CanEdit      *bool     `json:"can_edit"`
		CanView      *bool     `json:"can_view"`
		CanExport    *bool     `json:"can_export"`
	}
	if !a.decode(w, r, &in) {
		return
	}
	share := service.ShareInput{
		GranteeID:    in.GranteeID,
		Relationship: models.Relationship(in.Relationship),
	}
	// Flags override the relationship defaults only when the request sets
	// at least one of them explicitly.
	if in.CanEdit != nil || in.CanView != nil || in.CanExport != nil {
		caps := perm.DefaultCapabilitiesFor(share.Relationship)
		if in.CanEdit != nil {
			caps.CanEdit = *in.CanEdit
		}
		if in.CanView != nil {
			caps.CanView = *in.CanView
		}
		if in.CanExport != nil {
			caps.CanExport = *in.CanExport
		}
		share.Capabilities = &caps
	}
	if err := a.children.Share(r.Context(), user, id, share); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeStatus(w, r, http.StatusOK, "granted")
}

func (a *API) handleRevoke(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	granteeID, ok := a.pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := a.children.Revoke(r.Context(), user, id, granteeID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeStatus(w, r, http.StatusOK, "revoked")
}

type logDTO struct {
	ID          uuid.UUID `json:"id"`
	ChildID     uuid.UUID `json:"child_id"`
	LoggedBy    uuid.UUID `json:"logged_by"`
	LogDate     string    `json:"log_date"`
	Category    string    `json:"category,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CanEdit     bool      `json:"can_edit"`
}

func logToDTO(user *models.User, e models.LogEntry) logDTO {
	c := perm.NewChecker(user)
	return logDTO{
		ID: e.ID, ChildID: e.ChildID, LoggedBy: e.LoggedBy,
		LogDate: e.LogDate.Format("2006-01-02"),
		Category: e.Category, Title: e.Title, Description: e.Description,
		CanEdit: c.CanEditLog(e.LoggedBy),
	}
}

func (a *API) handleCreateLog(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		LogDate     string `json:"log_date"`
		Category    string `json:"category"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !a.decode(w, r, &in) {
		return
	}
	logDate, err := time.Parse("2006-01-02", in.LogDate)
	if err != nil {
		a.writeErr(w, r, fmt.Errorf("%w: bad log_date %q", service.ErrValidation, in.LogDate))
		return
	}
	entry, err := a.logs.Create(r.Context(), user, service.CreateLogInput{
		ChildID: id, LogDate: logDate,
		Category: in.Category, Title: in.Title, Description: in.Description,
	})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusCreated, logToDTO(user, *entry))
}

func (a *API) handleListLogs(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	entries, err := a.logs.List(r.Context(), user, id, from, to)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	out := make([]logDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, logToDTO(user, e))
	}
	a.writeJSON(w, r, http.StatusOK, out)
}

func (a *API) handleUpdateLog(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		LogDate     string `json:"log_date"`
		Category    string `json:"category"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !a.decode(w, r, &in) {
		return
	}
	logDate, err := time.Parse("2006-01-02", in.LogDate)
	if err != nil {
		a.writeErr(w, r, fmt.Errorf("%w: bad log_date %q", service.ErrValidation, in.LogDate))
		return
	}
	entry, err := a.logs.Update(r.Context(), user, id, service.UpdateLogInput{
		LogDate: logDate, Category: in.Category, Title: in.Title, Description: in.Description,
	})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, logToDTO(user, *entry))
}

func (a *API) handleExportLogs(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	data, filename, err := a.logs.Export(r.Context(), user, id, from, to)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	metrics.CountRequest(r.URL.Path, http.StatusOK)
	_, _ = w.Write(data)
}

// ---- helpers ----

func dateRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("%w: bad from %q", service.ErrValidation, v)
		}
	}
	if v := q.Get("to"); v != "" {
		to, err = time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("%w: bad to %q", service.ErrValidation, v)
		}
	}
	return from, to, nil
}

func (a *API) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		a.writeErr(w, r, fmt.Errorf("%w: bad %s", service.ErrValidation, name))
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.writeErr(w, r, fmt.Errorf("%w: bad json: %v", service.ErrValidation, err))
		return false
	}
	return true
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
	metrics.CountRequest(r.URL.Path, code)
}

func (a *API) writeStatus(w http.ResponseWriter, r *http.Request, code int, msg string) {
	a.writeJSON(w, r, code, map[string]string{"status": msg})
}

// writeErr maps the service taxonomy onto HTTP. Anything outside it is a
// store/infra failure: logged, sent to Sentry, surfaced as 500 so the UI may
// retry the whole operation.
func (a *API) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		a.writeStatus(w, r, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, service.ErrUnauthorized):
		a.writeStatus(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		a.writeStatus(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrValidation):
		a.writeJSON(w, r, http.StatusUnprocessableEntity, map[string]string{
			"status": "invalid", "detail": err.Error(),
		})
	default:
		metrics.HandlerErrors.Inc()
		observability.CaptureErr(err)
		fields := []any{"path", r.URL.Path, "err", err}
		if uid, ok := ctxutil.UserID(r.Context()); ok {
			fields = append(fields, "user_id", uid)
		}
		a.log.Errorw("request failed", fields...)
		a.writeStatus(w, r, http.StatusInternalServerError, "internal error")
	}
}

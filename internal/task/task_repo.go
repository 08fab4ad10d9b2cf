package task

import (
	"context"
	"database/sql"
	"strings"

	"go-taskhub/internal/access"
	"go-taskhub/internal/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type ListFilter struct {
	Status    string
	Priority  string
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
}

// sortColumns whitelists client-supplied sort keys. Anything else falls
// back to created_at.
var sortColumns = map[string]string{
	"createdAt": "tasks.created_at",
	"dueDate":   "tasks.due_date",
	"priority":  "tasks.priority",
	"status":    "tasks.status",
	"title":     "tasks.title",
}

func (f ListFilter) orderClause(defaultSort, defaultOrder string) string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns[defaultSort]
		if f.SortOrder == "" {
			return column + " " + defaultOrder
		}
	}

	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}
	return column + " " + order
}

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	List(ctx context.Context, actor access.Actor, f ListFilter) ([]Task, int64, error)
	ListAssigned(ctx context.Context, actorID uuid.UUID, f ListFilter) ([]Task, int64, error)
	Save(ctx context.Context, t *Task) error
	ReplaceAssignees(ctx context.Context, t *Task, assignees []user.User) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddComment(ctx context.Context, c *Comment) error
	AddAttachment(ctx context.Context, a *Attachment) error
	GetAttachment(ctx context.Context, taskID, attachmentID uuid.UUID) (*Attachment, error)
	DeleteAttachment(ctx context.Context, attachmentID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// Writes honor an ambient sql transaction so the task mutation and its
// outbox row commit or roll back together. Reads stay on gorm.
func (r *repository) Create(ctx context.Context, t *Task) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Create(t).Error
	}

	query := `
        INSERT INTO tasks (
            id, company_id, title, description, status, priority, visibility, due_date, created_by, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
    `
	if _, err := r.tx.ExecContext(
		ctx, query,
		t.ID, t.CompanyID, t.Title, t.Description, t.Status, t.Priority, t.Visibility, t.DueDate, t.CreatedBy,
	); err != nil {
		return err
	}
	return r.insertAssignees(ctx, t.ID, t.Assignees)
}

func (r *repository) insertAssignees(ctx context.Context, taskID uuid.UUID, assignees []user.User) error {
	for _, a := range assignees {
		if _, err := r.tx.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)`,
			taskID, a.ID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Attachments").
		First(&t, "tasks.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// visibilityScope composes the role-based base predicate: employees see
// their personal tasks plus company tasks they are assigned to,
// management sees every company-visibility task in the tenant, and
// superadmin is unscoped.
func visibilityScope(actor access.Actor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if actor.IsSuperadmin() {
			return db
		}
		if actor.Role.IsManagement() {
			return db.Where("tasks.company_id = ? AND tasks.visibility = ?",
				actor.CompanyID, access.VisibilityCompany)
		}
		return db.Where(
			"tasks.company_id = ? AND ((tasks.created_by = ? AND tasks.visibility = ?) OR (tasks.visibility = ? AND EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = tasks.id AND ta.user_id = ?)))",
			actor.CompanyID,
			actor.ID, access.VisibilityPersonal,
			access.VisibilityCompany, actor.ID,
		)
	}
}

func applyFilters(db *gorm.DB, f ListFilter) *gorm.DB {
	if f.Status != "" && f.Status != "all" {
		db = db.Where("tasks.status = ?", f.Status)
	}
	if f.Priority != "" && f.Priority != "all" {
		db = db.Where("tasks.priority = ?", f.Priority)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		db = db.Where("tasks.title ILIKE ? OR tasks.description ILIKE ?", pattern, pattern)
	}
	return db
}

func (r *repository) List(ctx context.Context, actor access.Actor, f ListFilter) ([]Task, int64, error) {
	f.normalize()

	base := r.db.WithContext(ctx).Model(&Task{}).
		Scopes(visibilityScope(actor))
	base = applyFilters(base, f)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []Task
	err := base.
		Preload("Assignees").
		Order(f.orderClause("createdAt", "DESC")).
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&tasks).Error
	return tasks, total, err
}

func (r *repository) ListAssigned(ctx context.Context, actorID uuid.UUID, f ListFilter) ([]Task, int64, error) {
	f.normalize()

	base := r.db.WithContext(ctx).Model(&Task{}).
		Where("EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = tasks.id AND ta.user_id = ?)", actorID)
	base = applyFilters(base, f)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []Task
	err := base.
		Preload("Assignees").
		Order(f.orderClause("dueDate", "ASC")).
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&tasks).Error
	return tasks, total, err
}

func (r *repository) Save(ctx context.Context, t *Task) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).
			Omit("Assignees", "Comments", "Attachments").
			Save(t).Error
	}

	query := `
        UPDATE tasks
        SET title = $1, description = $2, status = $3, priority = $4, visibility = $5, due_date = $6, updated_at = now()
        WHERE id = $7
    `
	_, err := r.tx.ExecContext(
		ctx, query,
		t.Title, t.Description, t.Status, t.Priority, t.Visibility, t.DueDate, t.ID,
	)
	return err
}

func (r *repository) ReplaceAssignees(ctx context.Context, t *Task, assignees []user.User) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Model(t).Association("Assignees").Replace(assignees)
	}

	if _, err := r.tx.ExecContext(ctx,
		`DELETE FROM task_assignees WHERE task_id = $1`, t.ID,
	); err != nil {
		return err
	}
	return r.insertAssignees(ctx, t.ID, assignees)
}

// Delete relies on ON DELETE CASCADE for assignees, comments and
// attachment metadata.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Delete(&Task{}, "id = ?", id).Error
	}

	_, err := r.tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *repository) AddComment(ctx context.Context, c *Comment) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Create(c).Error
	}

	_, err := r.tx.ExecContext(ctx,
		`INSERT INTO comments (id, task_id, user_id, text, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.TaskID, c.UserID, c.Text, c.CreatedAt,
	)
	return err
}

func (r *repository) AddAttachment(ctx context.Context, a *Attachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) GetAttachment(ctx context.Context, taskID, attachmentID uuid.UUID) (*Attachment, error) {
	var a Attachment
	err := r.db.WithContext(ctx).
		Where("id = ? AND task_id = ?", attachmentID, taskID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) DeleteAttachment(ctx context.Context, attachmentID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Attachment{}, "id = ?", attachmentID).Error
}

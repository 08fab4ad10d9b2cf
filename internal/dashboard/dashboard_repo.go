package dashboard

import (
	"context"
	"time"

	"go-taskhub/internal/access"
	"go-taskhub/internal/task"
	"go-taskhub/internal/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	recentTaskLimit      = 10
	overdueTaskLimit     = 5
	recentCompletedLimit = 5
)

type Repository interface {
	CompanyStats(ctx context.Context, companyID uuid.UUID, now time.Time) (TaskStats, error)
	AssignedStats(ctx context.Context, userID uuid.UUID, now time.Time) (TaskStats, error)
	TeamMembers(ctx context.Context, companyID uuid.UUID) ([]user.User, error)
	RecentTasks(ctx context.Context, companyID uuid.UUID) ([]task.Task, error)
	OverdueTasks(ctx context.Context, companyID uuid.UUID, now time.Time) ([]task.Task, error)
	AssignedOverdueTasks(ctx context.Context, userID uuid.UUID, now time.Time) ([]task.Task, error)
	RecentCompletedTasks(ctx context.Context, userID uuid.UUID) ([]task.Task, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// statusRow is the shape of the GROUP BY status aggregate.
type statusRow struct {
	Status string
	Count  int64
}

// companyTasks scopes to company-visibility tasks of one tenant. A nil
// companyID leaves the query unscoped for the cross-company variant.
func companyTasks(db *gorm.DB, companyID uuid.UUID) *gorm.DB {
	scoped := db.Model(&task.Task{}).Where("tasks.visibility = ?", access.VisibilityCompany)
	if companyID != uuid.Nil {
		scoped = scoped.Where("tasks.company_id = ?", companyID)
	}
	return scoped
}

func assignedTasks(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	return db.Model(&task.Task{}).
		Where("EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = tasks.id AND ta.user_id = ?)", userID)
}

func collectStats(base func() *gorm.DB, now time.Time) (TaskStats, error) {
	var stats TaskStats

	var rows []statusRow
	if err := base().
		Select("tasks.status AS status, COUNT(*) AS count").
		Group("tasks.status").
		Scan(&rows).Error; err != nil {
		return TaskStats{}, err
	}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case task.StatusTodo:
			stats.Todo = row.Count
		case task.StatusInProgress:
			stats.InProgress = row.Count
		case task.StatusReview:
			stats.Review = row.Count
		case task.StatusCompleted:
			stats.Completed = row.Count
		}
	}

	if err := base().
		Where("tasks.priority IN ?", []string{task.PriorityHigh, task.PriorityCritical}).
		Count(&stats.HighPriority).Error; err != nil {
		return TaskStats{}, err
	}

	if err := base().
		Where("tasks.due_date < ? AND tasks.status <> ?", now, task.StatusCompleted).
		Count(&stats.Overdue).Error; err != nil {
		return TaskStats{}, err
	}

	return stats, nil
}

func (r *repository) CompanyStats(ctx context.Context, companyID uuid.UUID, now time.Time) (TaskStats, error) {
	return collectStats(func() *gorm.DB {
		return companyTasks(r.db.WithContext(ctx), companyID)
	}, now)
}

func (r *repository) AssignedStats(ctx context.Context, userID uuid.UUID, now time.Time) (TaskStats, error) {
	return collectStats(func() *gorm.DB {
		return assignedTasks(r.db.WithContext(ctx), userID)
	}, now)
}

func (r *repository) TeamMembers(ctx context.Context, companyID uuid.UUID) ([]user.User, error) {
	var members []user.User
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = true AND role IN ?",
			companyID, []access.Role{access.RoleEmployee, access.RoleManager}).
		Order("name ASC").
		Find(&members).Error
	return members, err
}

func (r *repository) RecentTasks(ctx context.Context, companyID uuid.UUID) ([]task.Task, error) {
	var tasks []task.Task
	err := companyTasks(r.db.WithContext(ctx), companyID).
		Preload("Assignees").
		Order("tasks.created_at DESC").
		Limit(recentTaskLimit).
		Find(&tasks).Error
	return tasks, err
}

func (r *repository) OverdueTasks(ctx context.Context, companyID uuid.UUID, now time.Time) ([]task.Task, error) {
	var tasks []task.Task
	err := companyTasks(r.db.WithContext(ctx), companyID).
		Where("tasks.due_date < ? AND tasks.status <> ?", now, task.StatusCompleted).
		Preload("Assignees").
		Order("tasks.due_date ASC").
		Limit(overdueTaskLimit).
		Find(&tasks).Error
	return tasks, err
}

func (r *repository) AssignedOverdueTasks(ctx context.Context, userID uuid.UUID, now time.Time) ([]task.Task, error) {
	var tasks []task.Task
	err := assignedTasks(r.db.WithContext(ctx), userID).
		Where("tasks.due_date < ? AND tasks.status <> ?", now, task.StatusCompleted).
		Preload("Assignees").
		Order("tasks.due_date ASC").
		Limit(overdueTaskLimit).
		Find(&tasks).Error
	return tasks, err
}

func (r *repository) RecentCompletedTasks(ctx context.Context, userID uuid.UUID) ([]task.Task, error) {
	var tasks []task.Task
	err := assignedTasks(r.db.WithContext(ctx), userID).
		Where("tasks.status = ?", task.StatusCompleted).
		Preload("Assignees").
		Order("tasks.updated_at DESC").
		Limit(recentCompletedLimit).
		Find(&tasks).Error
	return tasks, err
}

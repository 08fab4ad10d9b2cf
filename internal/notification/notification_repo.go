package notification

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const listLimit = 50

type Repository interface {
	InsertBatch(ctx context.Context, batch []Notification) error
	FindByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]Notification, error)
	// MarkRead flips a single unread notification owned by userID and
	// reports whether any row changed.
	MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertBatch(ctx context.Context, batch []Notification) error {
	if len(batch) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&batch).Error
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if onlyUnread {
		q = q.Where("is_read = false")
	}

	var notifications []Notification
	err := q.Order("created_at DESC").Limit(listLimit).Find(&notifications).Error
	return notifications, err
}

func (r *repository) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ? AND is_read = false", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

package notification_test

import (
	"context"
	"errors"
	"testing"

	"go-taskhub/internal/access"
	"go-taskhub/internal/notification"
	notificationerrors "go-taskhub/internal/notification/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeNotificationRepository struct {
	insertBatchFn func(ctx context.Context, batch []notification.Notification) error
	findByUserFn  func(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]notification.Notification, error)
	markReadFn    func(ctx context.Context, userID, id uuid.UUID) (bool, error)
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (f *fakeNotificationRepository) InsertBatch(ctx context.Context, batch []notification.Notification) error {
	if f.insertBatchFn != nil {
		return f.insertBatchFn(ctx, batch)
	}
	return nil
}

func (f *fakeNotificationRepository) FindByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]notification.Notification, error) {
	if f.findByUserFn != nil {
		return f.findByUserFn(ctx, userID, onlyUnread)
	}
	return nil, nil
}

func (f *fakeNotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, userID, id)
	}
	return false, nil
}

func (f *fakeNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, userID)
	}
	return 0, nil
}

func TestNotificationService_Fanout(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	companyID := uuid.New()

	t.Run("persists one row per recipient", func(t *testing.T) {
		repo := &fakeNotificationRepository{}
		var inserted []notification.Notification
		repo.insertBatchFn = func(ctx context.Context, batch []notification.Notification) error {
			inserted = batch
			return nil
		}

		svc := notification.NewService(repo)
		svc.Fanout(ctx, []notification.Notification{
			{UserID: userID, CompanyID: companyID, Type: notification.TypeTaskAssigned, Message: "You were assigned"},
			{UserID: uuid.New(), CompanyID: companyID, Type: notification.TypeTaskAssigned, Message: "You were assigned"},
		})

		assert.Len(t, inserted, 2)
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		repo := &fakeNotificationRepository{
			insertBatchFn: func(ctx context.Context, batch []notification.Notification) error {
				return errors.New("connection reset")
			},
		}

		svc := notification.NewService(repo)
		assert.NotPanics(t, func() {
			svc.Fanout(ctx, []notification.Notification{{UserID: userID, CompanyID: companyID}})
		})
	})

	t.Run("empty batch skips the store", func(t *testing.T) {
		called := false
		repo := &fakeNotificationRepository{
			insertBatchFn: func(ctx context.Context, batch []notification.Notification) error {
				called = true
				return nil
			},
		}

		svc := notification.NewService(repo)
		svc.Fanout(ctx, nil)

		assert.False(t, called)
	})
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()
	actor := access.Actor{ID: uuid.New(), CompanyID: uuid.New(), Role: access.RoleEmployee}

	t.Run("owner flips unread", func(t *testing.T) {
		id := uuid.New()
		repo := &fakeNotificationRepository{
			markReadFn: func(ctx context.Context, userID, notifID uuid.UUID) (bool, error) {
				assert.Equal(t, actor.ID, userID)
				assert.Equal(t, id, notifID)
				return true, nil
			},
		}

		svc := notification.NewService(repo)
		assert.NoError(t, svc.MarkRead(ctx, actor, id.String()))
	})

	t.Run("foreign or missing notification reads as not found", func(t *testing.T) {
		repo := &fakeNotificationRepository{
			markReadFn: func(ctx context.Context, userID, notifID uuid.UUID) (bool, error) {
				return false, nil
			},
		}

		svc := notification.NewService(repo)
		err := svc.MarkRead(ctx, actor, uuid.New().String())

		assert.ErrorIs(t, err, notificationerrors.ErrNotificationNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := notification.NewService(&fakeNotificationRepository{})
		err := svc.MarkRead(ctx, actor, "abc")

		assert.ErrorIs(t, err, notificationerrors.ErrInvalidNotificationID)
	})
}

package notification

import (
	"context"

	"go-taskhub/internal/access"
	notificationerrors "go-taskhub/internal/notification/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// Fanout persists one row per recipient. Failures are logged and
	// swallowed: a notification miss never fails the task mutation that
	// produced it.
	Fanout(ctx context.Context, batch []Notification)

	List(ctx context.Context, actor access.Actor, onlyUnread bool) ([]NotificationResponse, error)
	MarkRead(ctx context.Context, actor access.Actor, id string) error
	MarkAllRead(ctx context.Context, actor access.Actor) (int64, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Fanout(ctx context.Context, batch []Notification) {
	if len(batch) == 0 {
		return
	}

	if err := s.repo.InsertBatch(ctx, batch); err != nil {
		s.logger.Error("notification fanout failed",
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("notification fanout", zap.Int("count", len(batch)))
}

func (s *service) List(ctx context.Context, actor access.Actor, onlyUnread bool) ([]NotificationResponse, error) {
	notifications, err := s.repo.FindByUser(ctx, actor.ID, onlyUnread)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(notifications), nil
}

func (s *service) MarkRead(ctx context.Context, actor access.Actor, id string) error {
	notificationID, err := uuid.Parse(id)
	if err != nil {
		return notificationerrors.ErrInvalidNotificationID
	}

	// The ownership predicate lives in the update itself, so a foreign
	// or already-read notification is indistinguishable from a missing
	// one.
	flipped, err := s.repo.MarkRead(ctx, actor.ID, notificationID)
	if err != nil {
		return err
	}
	if !flipped {
		return notificationerrors.ErrNotificationNotFound
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, actor access.Actor) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.ID)
}

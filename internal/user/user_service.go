package user

import (
	"context"
	"errors"

	"go-taskhub/internal/access"
	"go-taskhub/internal/shared/apperror"
	usererrors "go-taskhub/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	GetAll(ctx context.Context, actor access.Actor) ([]UserResponse, error)
	GetByID(ctx context.Context, actor access.Actor, id string) (UserResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) GetAll(ctx context.Context, actor access.Actor) ([]UserResponse, error) {
	var (
		users []User
		err   error
	)
	if actor.IsSuperadmin() {
		users, err = s.repo.FindAll(ctx)
	} else {
		users, err = s.repo.FindAllByCompany(ctx, actor.CompanyID.String())
	}
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, err
	}
	return MapToListResponse(users), nil
}

func (s *service) GetByID(ctx context.Context, actor access.Actor, id string) (UserResponse, error) {
	targetID, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	u, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, usererrors.ErrUserNotFound
		}
		return UserResponse{}, err
	}

	if !actor.IsSuperadmin() {
		if u.CompanyID == nil || *u.CompanyID != actor.CompanyID {
			return UserResponse{}, apperror.ErrForbidden
		}
	}

	return MapToResponse(*u), nil
}

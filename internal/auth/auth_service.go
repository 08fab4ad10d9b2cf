package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-taskhub/internal/access"
	autherrors "go-taskhub/internal/auth/errors"
	"go-taskhub/internal/company"
	companyerrors "go-taskhub/internal/company/errors"
	"go-taskhub/internal/shared/apperror"
	"go-taskhub/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (AuthResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (AuthResponse, error)

	// ResolveActor backs the session middleware. It re-reads the user
	// row on every request so deactivation takes effect immediately.
	ResolveActor(ctx context.Context, userID uuid.UUID) (access.Actor, error)
}

type service struct {
	userRepo    user.Repository
	companyRepo company.Repository
	logger      *zap.Logger
}

func NewService(userRepo user.Repository, companyRepo company.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{userRepo: userRepo, companyRepo: companyRepo, logger: l}
}

// Register signs a user up directly into an existing active company.
// The superadmin role can never be claimed through this path.
func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	role := access.RoleEmployee
	if req.Role != "" {
		parsed, ok := access.ParseRole(req.Role)
		if !ok || !parsed.Invitable() {
			return AuthResponse{}, autherrors.ErrRoleNotAllowed
		}
		role = parsed
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return AuthResponse{}, companyerrors.ErrInvalidCompanyID
	}

	c, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResponse{}, companyerrors.ErrCompanyNotFound
		}
		return AuthResponse{}, err
	}
	if !c.IsActive {
		return AuthResponse{}, companyerrors.ErrCompanyInactive
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	u := &user.User{
		ID:        uuid.New(),
		CompanyID: &companyID,
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      role,
		JobTitle:  req.JobTitle,
		IsActive:  true,
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		if isDuplicateEmail(err) {
			return AuthResponse{}, autherrors.ErrEmailAlreadyRegistered
		}
		s.logger.Error("register persist failed", zap.Error(err))
		return AuthResponse{}, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", u.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("role", string(role)),
	)

	return AuthResponse{User: user.MapToResponse(*u)}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if !u.IsActive {
		return AuthResponse{}, autherrors.ErrAccountInactive
	}

	if u.CompanyID != nil {
		c, err := s.companyRepo.GetByID(ctx, *u.CompanyID)
		if err != nil || !c.IsActive {
			return AuthResponse{}, companyerrors.ErrCompanyInactive
		}
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		// Login still succeeds; the stamp is advisory.
		s.logger.Warn("last login stamp failed", zap.String("user_id", u.ID.String()), zap.Error(err))
	} else {
		u.LastLogin = &now
	}

	s.logger.Info("login success", zap.String("user_id", u.ID.String()))

	return AuthResponse{User: user.MapToResponse(*u)}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (AuthResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResponse{}, apperror.ErrUnauthorized
		}
		return AuthResponse{}, err
	}
	return AuthResponse{User: user.MapToResponse(*u)}, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (AuthResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResponse{}, apperror.ErrUnauthorized
		}
		return AuthResponse{}, err
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if req.JobTitle != "" {
		u.JobTitle = req.JobTitle
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return AuthResponse{}, err
		}
		u.Password = string(hashed)
	}

	if err := s.userRepo.Save(ctx, u); err != nil {
		if isDuplicateEmail(err) {
			return AuthResponse{}, autherrors.ErrEmailAlreadyRegistered
		}
		return AuthResponse{}, err
	}

	return AuthResponse{User: user.MapToResponse(*u)}, nil
}

func (s *service) ResolveActor(ctx context.Context, userID uuid.UUID) (access.Actor, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return access.Actor{}, apperror.ErrUnauthorized
	}
	if !u.IsActive {
		return access.Actor{}, autherrors.ErrAccountInactive
	}
	return u.Actor(), nil
}

func isDuplicateEmail(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") && strings.Contains(msg, "uq_user_email")
}

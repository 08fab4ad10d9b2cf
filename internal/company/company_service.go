package company

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go-taskhub/internal/access"
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
	Register(ctx context.Context, req RegisterCompanyRequest) (RegisterCompanyResponse, error)
	GetByID(ctx context.Context, actor access.Actor, id string) (CompanyResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	userRepo user.Repository
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, userRepo user.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("company.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("company.service")
	}
	return &service{db: db, repo: repo, userRepo: userRepo, logger: l}
}

// Register bootstraps a tenant: the company row and its first admin user
// are created in one transaction so a half-registered company cannot
// exist.
func (s *service) Register(ctx context.Context, req RegisterCompanyRequest) (RegisterCompanyResponse, error) {
	s.logger.Debug("register company requested",
		zap.String("company_name", req.CompanyName),
		zap.String("admin_email", req.AdminEmail),
	)

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return RegisterCompanyResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("register company begin tx failed", zap.Error(err))
		return RegisterCompanyResponse{}, err
	}
	defer tx.Rollback()

	c := &Company{
		ID:       uuid.New(),
		Name:     req.CompanyName,
		Industry: req.Industry,
		Street:   req.Street,
		City:     req.City,
		State:    req.State,
		ZipCode:  req.ZipCode,
		Country:  req.Country,
		IsActive: true,
	}

	if err := s.repo.WithTx(tx).Create(ctx, c); err != nil {
		s.logger.Warn("register company persist failed", zap.Error(err))
		return RegisterCompanyResponse{}, mapRegistrationError(err)
	}

	companyID := c.ID
	admin := &user.User{
		ID:        uuid.New(),
		CompanyID: &companyID,
		Name:      req.AdminName,
		Email:     req.AdminEmail,
		Password:  string(hashed),
		Role:      access.RoleAdmin,
		JobTitle:  req.AdminJobTitle,
		IsActive:  true,
	}
	if admin.JobTitle == "" {
		admin.JobTitle = "Administrator"
	}

	if err := s.userRepo.WithTx(tx).Create(ctx, admin); err != nil {
		s.logger.Warn("register company admin persist failed", zap.Error(err))
		return RegisterCompanyResponse{}, mapRegistrationError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("register company commit failed", zap.Error(err))
		return RegisterCompanyResponse{}, err
	}

	s.logger.Info("register company success",
		zap.String("company_id", c.ID.String()),
		zap.String("admin_id", admin.ID.String()),
	)

	return RegisterCompanyResponse{
		Company: mapToResponse(*c),
		AdminID: admin.ID.String(),
	}, nil
}

func (s *service) GetByID(ctx context.Context, actor access.Actor, id string) (CompanyResponse, error) {
	companyID, err := uuid.Parse(id)
	if err != nil {
		return CompanyResponse{}, companyerrors.ErrInvalidCompanyID
	}

	if !actor.IsSuperadmin() && actor.CompanyID != companyID {
		return CompanyResponse{}, apperror.ErrForbidden
	}

	c, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CompanyResponse{}, companyerrors.ErrCompanyNotFound
		}
		return CompanyResponse{}, err
	}

	return mapToResponse(*c), nil
}

func mapRegistrationError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "uq_company_name":
			return companyerrors.ErrCompanyNameTaken
		case "uq_user_email":
			return companyerrors.ErrAdminEmailTaken
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_company_name") {
		return companyerrors.ErrCompanyNameTaken
	}
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_user_email") {
		return companyerrors.ErrAdminEmailTaken
	}

	return err
}

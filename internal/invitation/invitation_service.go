package invitation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go-taskhub/internal/access"
	autherrors "go-taskhub/internal/auth/errors"
	"go-taskhub/internal/company"
	invitationerrors "go-taskhub/internal/invitation/errors"
	"go-taskhub/internal/shared/apperror"
	"go-taskhub/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultTTLDays = 7
	minTTLDays     = 1
	maxTTLDays     = 30
)

type Service interface {
	Generate(ctx context.Context, actor access.Actor, req GenerateInvitationRequest) (GenerateInvitationResponse, error)
	Validate(ctx context.Context, rawToken string) (ValidateInvitationResponse, error)
	Consume(ctx context.Context, rawToken string, req ConsumeInvitationRequest) (ConsumeInvitationResponse, error)
	ListByCompany(ctx context.Context, actor access.Actor, companyID string) ([]InvitationResponse, error)
	Revoke(ctx context.Context, actor access.Actor, id string) (InvitationResponse, error)
}

type service struct {
	db          *sql.DB
	repo        Repository
	userRepo    user.Repository
	companyRepo company.Repository
	logger      *zap.Logger
}

func NewService(db *sql.DB, repo Repository, userRepo user.Repository, companyRepo company.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("invitation.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("invitation.service")
	}
	return &service{db: db, repo: repo, userRepo: userRepo, companyRepo: companyRepo, logger: l}
}

func (s *service) Generate(ctx context.Context, actor access.Actor, req GenerateInvitationRequest) (GenerateInvitationResponse, error) {
	role, ok := access.ParseRole(req.Role)
	if !ok || !role.Invitable() {
		return GenerateInvitationResponse{}, invitationerrors.ErrRoleNotInvitable
	}

	companyID := actor.CompanyID
	if actor.IsSuperadmin() {
		if req.CompanyID == "" {
			return GenerateInvitationResponse{}, apperror.RequiredField("companyId")
		}
		parsed, err := uuid.Parse(req.CompanyID)
		if err != nil {
			return GenerateInvitationResponse{}, apperror.InvalidField("companyId")
		}
		companyID = parsed
	} else {
		if actor.Role != access.RoleAdmin {
			return GenerateInvitationResponse{}, apperror.ErrForbidden
		}
		if req.CompanyID != "" && req.CompanyID != actor.CompanyID.String() {
			return GenerateInvitationResponse{}, apperror.ErrForbidden
		}
	}

	ttl := defaultTTLDays
	if req.TTLDays != nil {
		ttl = *req.TTLDays
	}
	if ttl < minTTLDays || ttl > maxTTLDays {
		return GenerateInvitationResponse{}, invitationerrors.ErrTTLOutOfRange
	}

	raw, hash, err := NewToken()
	if err != nil {
		return GenerateInvitationResponse{}, err
	}

	inv := &Invitation{
		ID:        uuid.New(),
		TokenHash: hash,
		CompanyID: companyID,
		Role:      role,
		CreatedBy: actor.ID,
		ExpiresAt: time.Now().UTC().Add(time.Duration(ttl) * 24 * time.Hour),
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		s.logger.Error("invitation persist failed", zap.Error(err))
		return GenerateInvitationResponse{}, err
	}

	s.logger.Info("invitation generated",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("role", string(role)),
		zap.Int("ttl_days", ttl),
	)

	return GenerateInvitationResponse{
		Token:     raw,
		Link:      fmt.Sprintf("%s/invite/%s", strings.TrimRight(os.Getenv("CLIENT_URL"), "/"), raw),
		Role:      string(role),
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// Validate is a pure read so clients can poll an invite link without
// burning it.
func (s *service) Validate(ctx context.Context, rawToken string) (ValidateInvitationResponse, error) {
	inv, err := s.lookup(ctx, rawToken)
	if err != nil {
		return ValidateInvitationResponse{}, err
	}

	c, err := s.companyRepo.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return ValidateInvitationResponse{}, err
	}

	invitedBy := ""
	if creator, err := s.userRepo.GetByID(ctx, inv.CreatedBy); err == nil {
		invitedBy = creator.Name
	}

	return ValidateInvitationResponse{
		CompanyName: c.Name,
		Role:        string(inv.Role),
		InvitedBy:   invitedBy,
		ExpiresAt:   inv.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// Consume creates the invited user and flips the single-use flag in one
// transaction. Two racing consumers both pass the read checks, but only
// the one whose conditional update affects a row commits.
func (s *service) Consume(ctx context.Context, rawToken string, req ConsumeInvitationRequest) (ConsumeInvitationResponse, error) {
	inv, err := s.lookup(ctx, rawToken)
	if err != nil {
		return ConsumeInvitationResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return ConsumeInvitationResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("consume begin tx failed", zap.Error(err))
		return ConsumeInvitationResponse{}, err
	}
	defer tx.Rollback()

	companyID := inv.CompanyID
	u := &user.User{
		ID:        uuid.New(),
		CompanyID: &companyID,
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      inv.Role,
		JobTitle:  req.JobTitle,
		IsActive:  true,
	}

	if err := s.userRepo.WithTx(tx).Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return ConsumeInvitationResponse{}, autherrors.ErrEmailAlreadyRegistered
		}
		s.logger.Error("invited user persist failed", zap.Error(err))
		return ConsumeInvitationResponse{}, err
	}

	won, err := s.repo.WithTx(tx).MarkUsed(ctx, HashToken(rawToken), u.ID, time.Now().UTC())
	if err != nil {
		s.logger.Error("invitation mark used failed", zap.Error(err))
		return ConsumeInvitationResponse{}, err
	}
	if !won {
		// Someone else consumed it between our read and this update.
		return ConsumeInvitationResponse{}, invitationerrors.ErrInvitationAlreadyUsed
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("consume commit failed", zap.Error(err))
		return ConsumeInvitationResponse{}, err
	}

	s.logger.Info("invitation consumed",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("user_id", u.ID.String()),
		zap.String("company_id", companyID.String()),
	)

	return ConsumeInvitationResponse{User: user.MapToResponse(*u)}, nil
}

func (s *service) ListByCompany(ctx context.Context, actor access.Actor, companyID string) ([]InvitationResponse, error) {
	scope := actor.CompanyID
	if actor.IsSuperadmin() {
		if companyID == "" {
			return nil, apperror.RequiredField("companyId")
		}
		parsed, err := uuid.Parse(companyID)
		if err != nil {
			return nil, apperror.InvalidField("companyId")
		}
		scope = parsed
	} else {
		if actor.Role != access.RoleAdmin {
			return nil, apperror.ErrForbidden
		}
		if companyID != "" && companyID != actor.CompanyID.String() {
			return nil, apperror.ErrForbidden
		}
	}

	invs, err := s.repo.FindAllByCompany(ctx, scope)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(invs), nil
}

func (s *service) Revoke(ctx context.Context, actor access.Actor, id string) (InvitationResponse, error) {
	invID, err := uuid.Parse(id)
	if err != nil {
		return InvitationResponse{}, invitationerrors.ErrInvalidInvitationID
	}

	inv, err := s.repo.GetByID(ctx, invID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvitationResponse{}, invitationerrors.ErrInvitationNotFound
		}
		return InvitationResponse{}, err
	}

	if !actor.IsSuperadmin() {
		if actor.Role != access.RoleAdmin || actor.CompanyID != inv.CompanyID {
			return InvitationResponse{}, apperror.ErrForbidden
		}
	}

	if inv.IsUsed {
		return InvitationResponse{}, invitationerrors.ErrInvitationRevoked
	}

	now := time.Now().UTC()
	if err := s.repo.Expire(ctx, invID, now); err != nil {
		return InvitationResponse{}, err
	}
	inv.ExpiresAt = now

	s.logger.Info("invitation revoked",
		zap.String("invitation_id", invID.String()),
		zap.String("revoked_by", actor.ID.String()),
	)

	return mapToResponse(*inv), nil
}

// lookup resolves a raw token and applies the not-found / already-used /
// expired gates, in that order.
func (s *service) lookup(ctx context.Context, rawToken string) (*Invitation, error) {
	inv, err := s.repo.FindByTokenHash(ctx, HashToken(rawToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invitationerrors.ErrInvitationNotFound
		}
		return nil, err
	}

	if inv.IsUsed {
		return nil, invitationerrors.ErrInvitationAlreadyUsed
	}
	if inv.Expired(time.Now().UTC()) {
		return nil, invitationerrors.ErrInvitationExpired
	}
	return inv, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

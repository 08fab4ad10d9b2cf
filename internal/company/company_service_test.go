package company_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-taskhub/internal/access"
	"go-taskhub/internal/company"
	companyerrors "go-taskhub/internal/company/errors"
	"go-taskhub/internal/shared/apperror"
	"go-taskhub/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeCompanyRepository struct {
	withTxFn  func(tx *sql.Tx) company.Repository
	createFn  func(ctx context.Context, c *company.Company) error
	getByIDFn func(ctx context.Context, id uuid.UUID) (*company.Company, error)
}

func (f *fakeCompanyRepository) WithTx(tx *sql.Tx) company.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeCompanyRepository) Create(ctx context.Context, c *company.Company) error {
	if f.createFn != nil {
		return f.createFn(ctx, c)
	}
	return nil
}

func (f *fakeCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeUserRepository struct {
	withTxFn  func(tx *sql.Tx) user.Repository
	createFn  func(ctx context.Context, u *user.User) error
	getByIDFn func(ctx context.Context, id uuid.UUID) (*user.User, error)
}

func (f *fakeUserRepository) WithTx(tx *sql.Tx) user.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeUserRepository) Create(ctx context.Context, u *user.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	return nil
}

func (f *fakeUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) FindAll(ctx context.Context) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepository) FindAllByCompany(ctx context.Context, companyID string) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepository) FindActiveByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (f *fakeUserRepository) Save(ctx context.Context, u *user.User) error {
	return nil
}

type companyServiceDeps struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	service  company.Service
	repo     *fakeCompanyRepository
	userRepo *fakeUserRepository
}

func setupCompanyServiceTest(t *testing.T) *companyServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeCompanyRepository{}
	userRepo := &fakeUserRepository{}
	svc := company.NewService(db, repo, userRepo)

	return &companyServiceDeps{
		db:       db,
		sqlMock:  sqlMock,
		service:  svc,
		repo:     repo,
		userRepo: userRepo,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestCompanyService_Register(t *testing.T) {
	ctx := context.Background()

	req := company.RegisterCompanyRequest{
		CompanyName:   "Acme Corp",
		Industry:      "Logistics",
		City:          "Austin",
		Country:       "US",
		AdminName:     "Jordan Birch",
		AdminEmail:    "jordan@acme.test",
		AdminPassword: "s3cret-pass",
	}

	t.Run("success", func(t *testing.T) {
		deps := setupCompanyServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		var createdCompanyID uuid.UUID
		deps.repo.createFn = func(ctx context.Context, c *company.Company) error {
			assert.Equal(t, "Acme Corp", c.Name)
			assert.True(t, c.IsActive)
			createdCompanyID = c.ID
			return nil
		}
		deps.userRepo.createFn = func(ctx context.Context, u *user.User) error {
			assert.NotNil(t, u.CompanyID)
			assert.Equal(t, createdCompanyID, *u.CompanyID)
			assert.Equal(t, access.RoleAdmin, u.Role)
			assert.True(t, u.IsActive)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret-pass")))
			return nil
		}

		resp, err := deps.service.Register(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, "Acme Corp", resp.Company.Name)
		assert.Equal(t, createdCompanyID.String(), resp.Company.ID)
		assert.NotEmpty(t, resp.AdminID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("duplicate company name maps to conflict", func(t *testing.T) {
		deps := setupCompanyServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		deps.repo.createFn = func(ctx context.Context, c *company.Company) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_company_name"}
		}

		_, err := deps.service.Register(ctx, req)

		assert.ErrorIs(t, err, companyerrors.ErrCompanyNameTaken)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("duplicate admin email maps to conflict", func(t *testing.T) {
		deps := setupCompanyServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		deps.userRepo.createFn = func(ctx context.Context, u *user.User) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_user_email"}
		}

		_, err := deps.service.Register(ctx, req)

		assert.ErrorIs(t, err, companyerrors.ErrAdminEmailTaken)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestCompanyService_GetByID(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("same tenant can read", func(t *testing.T) {
		deps := setupCompanyServiceTest(t)
		defer deps.db.Close()

		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*company.Company, error) {
			assert.Equal(t, companyID, id)
			return &company.Company{ID: companyID, Name: "Acme Corp", IsActive: true}, nil
		}

		actor := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleEmployee}
		resp, err := deps.service.GetByID(ctx, actor, companyID.String())

		assert.NoError(t, err)
		assert.Equal(t, "Acme Corp", resp.Name)
	})

	t.Run("cross tenant is forbidden", func(t *testing.T) {
		deps := setupCompanyServiceTest(t)
		defer deps.db.Close()

		actor := access.Actor{ID: uuid.New(), CompanyID: uuid.New(), Role: access.RoleAdmin}
		_, err := deps.service.GetByID(ctx, actor, companyID.String())

		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("superadmin can read any tenant", func(t *testing.T) {
		deps := setupCompanyServiceTest(t)
		defer deps.db.Close()

		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*company.Company, error) {
			return &company.Company{ID: companyID, Name: "Acme Corp", IsActive: true}, nil
		}

		actor := access.Actor{ID: uuid.New(), Role: access.RoleSuperadmin}
		resp, err := deps.service.GetByID(ctx, actor, companyID.String())

		assert.NoError(t, err)
		assert.Equal(t, companyID.String(), resp.ID)
	})

	t.Run("missing company maps to not found", func(t *testing.T) {
		deps := setupCompanyServiceTest(t)
		defer deps.db.Close()

		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*company.Company, error) {
			return nil, gorm.ErrRecordNotFound
		}

		actor := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleAdmin}
		_, err := deps.service.GetByID(ctx, actor, companyID.String())

		assert.ErrorIs(t, err, companyerrors.ErrCompanyNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		deps := setupCompanyServiceTest(t)
		defer deps.db.Close()

		actor := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleAdmin}
		_, err := deps.service.GetByID(ctx, actor, "not-a-uuid")

		assert.ErrorIs(t, err, companyerrors.ErrInvalidCompanyID)
	})
}

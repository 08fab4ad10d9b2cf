package user

import (
	"context"
	"database/sql"
	"time"

	"go-taskhub/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]User, error)
	FindActiveByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Save(ctx context.Context, u *User) error
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

// Create honors an ambient sql transaction so callers composing multiple
// writes (company bootstrap, invitation consumption) stay atomic.
func (r *repository) Create(ctx context.Context, u *User) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Create(u).Error
	}

	query := `
        INSERT INTO users (
            id, company_id, name, email, password, role, job_title, is_active, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
    `
	_, err := r.tx.ExecContext(
		ctx, query,
		u.ID, u.CompanyID, u.Name, u.Email, u.Password, u.Role, u.JobTitle, u.IsActive,
	)
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindAll(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Find(&users).Error
	return users, err
}

func (r *repository) FindActiveByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("company_id = ?", companyID).
		Where("is_active = ?", true).
		Find(&users).Error
	return users, err
}

func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

func (r *repository) Save(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

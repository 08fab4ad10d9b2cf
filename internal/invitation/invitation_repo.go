package invitation

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
	FindByTokenHash(ctx context.Context, hash string) (*Invitation, error)
	FindAllByCompany(ctx context.Context, companyID uuid.UUID) ([]Invitation, error)
	// MarkUsed flips the single-use flag with a conditional update and
	// reports whether this caller won the flip.
	MarkUsed(ctx context.Context, hash string, usedBy uuid.UUID, usedAt time.Time) (bool, error)
	Expire(ctx context.Context, id uuid.UUID, at time.Time) error
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

func (r *repository) Create(ctx context.Context, inv *Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error) {
	var inv Invitation
	err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) FindByTokenHash(ctx context.Context, hash string) (*Invitation, error) {
	var inv Invitation
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID uuid.UUID) ([]Invitation, error) {
	var invs []Invitation
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

const markUsedQuery = `
    UPDATE invitations
    SET is_used = true, used_by = $1, used_at = $2, updated_at = now()
    WHERE token_hash = $3 AND is_used = false
`

// MarkUsed is the concurrency gate: with two racing consumers, exactly
// one sees an affected row. It honors an ambient transaction so the flip
// commits or rolls back together with the invited user's insert.
func (r *repository) MarkUsed(ctx context.Context, hash string, usedBy uuid.UUID, usedAt time.Time) (bool, error) {
	if r.tx != nil {
		res, err := r.tx.ExecContext(ctx, markUsedQuery, usedBy, usedAt, hash)
		if err != nil {
			return false, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return affected == 1, nil
	}

	res := r.db.WithContext(ctx).Exec(
		"UPDATE invitations SET is_used = true, used_by = ?, used_at = ?, updated_at = now() WHERE token_hash = ? AND is_used = false",
		usedBy, usedAt, hash,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Expire(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Invitation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"expires_at": at, "updated_at": at}).Error
}

package user

import (
	"time"

	"go-taskhub/internal/access"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID *uuid.UUID  `gorm:"type:uuid;index"` // nil only for superadmin
	Name      string      `gorm:"type:varchar(255);not null"`
	Email     string      `gorm:"type:varchar(255);uniqueIndex:uq_user_email;not null"`
	Password  string      `gorm:"type:varchar(255);not null"`
	Role      access.Role `gorm:"type:varchar(20);not null"`
	JobTitle  string      `gorm:"type:varchar(120)"`
	IsActive  bool        `gorm:"default:true"`
	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor resolves the authorization identity for this user. Authority is
// always derived from the stored row, never from session claims.
func (u *User) Actor() access.Actor {
	companyID := uuid.Nil
	if u.CompanyID != nil {
		companyID = *u.CompanyID
	}
	return access.Actor{
		ID:        u.ID,
		CompanyID: companyID,
		Role:      u.Role,
	}
}

package invitation

import (
	"time"

	"go-taskhub/internal/access"

	"github.com/google/uuid"
)

// Invitation stores only the sha256 hash of the token. The raw token is
// returned to the inviter once and never persisted or logged.
type Invitation struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TokenHash string      `gorm:"type:char(64);uniqueIndex:uq_invitation_token_hash;not null"`
	CompanyID uuid.UUID   `gorm:"type:uuid;index;not null"`
	Role      access.Role `gorm:"type:varchar(20);not null;default:employee"`
	CreatedBy uuid.UUID   `gorm:"type:uuid;not null"`
	ExpiresAt time.Time   `gorm:"not null"`
	IsUsed    bool        `gorm:"not null;default:false"`
	UsedBy    *uuid.UUID  `gorm:"type:uuid"`
	UsedAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

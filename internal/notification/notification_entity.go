package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeTaskAssigned  = "task-assigned"
	TypeTaskUpdated   = "task-updated"
	TypeTaskCompleted = "task-completed"
	TypeMention       = "mention"
	TypeSystem        = "system"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;index;not null"`
	Type       string     `gorm:"type:varchar(30);not null"`
	Message    string     `gorm:"type:text;not null"`
	EntityType string     `gorm:"type:varchar(30)"`
	EntityID   *uuid.UUID `gorm:"type:uuid"`
	IsRead     bool       `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

package company

import (
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string    `gorm:"type:varchar(255);uniqueIndex:uq_company_name;not null"`
	Industry string    `gorm:"type:varchar(120);not null"`
	Street   string    `gorm:"type:varchar(255)"`
	City     string    `gorm:"type:varchar(120)"`
	State    string    `gorm:"type:varchar(120)"`
	ZipCode  string    `gorm:"type:varchar(20)"`
	Country  string    `gorm:"type:varchar(120)"`

	// Deactivation is a soft flag; companies are never hard-deleted
	// while users or tasks reference them.
	IsActive bool `gorm:"default:true;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

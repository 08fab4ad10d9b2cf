package task

import (
	"time"

	"go-taskhub/internal/access"
	"go-taskhub/internal/user"

	"github.com/google/uuid"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusReview     = "review"
	StatusCompleted  = "completed"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusCompleted:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(20);not null;default:todo"`
	Priority    string    `gorm:"type:varchar(20);not null;default:medium"`
	Visibility  string    `gorm:"type:varchar(20);not null;default:company"`
	DueDate     *time.Time
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Assignees   []user.User  `gorm:"many2many:task_assignees;"`
	Comments    []Comment    `gorm:"constraint:OnDelete:CASCADE;"`
	Attachments []Attachment `gorm:"constraint:OnDelete:CASCADE;"`
}

// Comment rows are append-only; there is no edit or delete path.
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TaskID    uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// Attachment is the durable pointer to a blob object. The blob itself
// lives in the store under FileKey.
type Attachment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TaskID       uuid.UUID `gorm:"type:uuid;index;not null"`
	FileKey      string    `gorm:"type:varchar(512);not null"`
	OriginalName string    `gorm:"type:varchar(255);not null"`
	MimeType     string    `gorm:"type:varchar(120);not null"`
	Size         int64     `gorm:"not null"`
	UploadedBy   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}

func (t *Task) AssigneeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(t.Assignees))
	for i, a := range t.Assignees {
		ids[i] = a.ID
	}
	return ids
}

// Ref projects the ownership facts the access decision table needs.
func (t *Task) Ref() access.TaskRef {
	return access.TaskRef{
		CompanyID:   t.CompanyID,
		CreatedBy:   t.CreatedBy,
		AssigneeIDs: t.AssigneeIDs(),
		Visibility:  t.Visibility,
	}
}

func (t *Task) IsAssignee(id uuid.UUID) bool {
	for _, a := range t.Assignees {
		if a.ID == id {
			return true
		}
	}
	return false
}

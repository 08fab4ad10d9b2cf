package task

import (
	"time"

	"go-taskhub/internal/user"
)

type CreateTaskRequest struct {
	Title       string   `json:"title" form:"title" binding:"required"`
	Description string   `json:"description" form:"description"`
	Status      string   `json:"status" form:"status"`
	Priority    string   `json:"priority" form:"priority"`
	DueDate     *string  `json:"dueDate" form:"dueDate"`
	Assignees   []string `json:"assignees" form:"assignees"`
}

// UpdateTaskRequest uses pointers so an absent field and an explicit
// empty value stay distinguishable.
type UpdateTaskRequest struct {
	Title       *string   `json:"title" form:"title"`
	Description *string   `json:"description" form:"description"`
	Status      *string   `json:"status" form:"status"`
	Priority    *string   `json:"priority" form:"priority"`
	DueDate     *string   `json:"dueDate" form:"dueDate"`
	Assignees   *[]string `json:"assignees" form:"assignees"`
	Visibility  *string   `json:"visibility" form:"visibility"`
}

type ListTasksQuery struct {
	Status    string `form:"status"`
	Priority  string `form:"priority"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type AttachmentResponse struct {
	ID           string `json:"id"`
	FileKey      string `json:"file_key"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	UploadedBy   string `json:"uploaded_by"`
	CreatedAt    string `json:"created_at"`
}

type TaskResponse struct {
	ID          string               `json:"id"`
	CompanyID   string               `json:"company_id"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Status      string               `json:"status"`
	Priority    string               `json:"priority"`
	Visibility  string               `json:"visibility"`
	DueDate     *string              `json:"due_date,omitempty"`
	CreatedBy   string               `json:"created_by"`
	Assignees   []user.UserResponse  `json:"assignees"`
	Comments    []CommentResponse    `json:"comments,omitempty"`
	Attachments []AttachmentResponse `json:"attachments,omitempty"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

func MapToResponse(t Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		CompanyID:   t.CompanyID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Visibility:  t.Visibility,
		CreatedBy:   t.CreatedBy.String(),
		Assignees:   user.MapToListResponse(t.Assignees),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	if t.DueDate != nil {
		v := t.DueDate.Format(time.RFC3339)
		resp.DueDate = &v
	}
	for _, cm := range t.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			ID:        cm.ID.String(),
			UserID:    cm.UserID.String(),
			Text:      cm.Text,
			CreatedAt: cm.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, at := range t.Attachments {
		resp.Attachments = append(resp.Attachments, MapAttachmentToResponse(at))
	}
	return resp
}

func MapAttachmentToResponse(at Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:           at.ID.String(),
		FileKey:      at.FileKey,
		OriginalName: at.OriginalName,
		MimeType:     at.MimeType,
		Size:         at.Size,
		UploadedBy:   at.UploadedBy.String(),
		CreatedAt:    at.CreatedAt.Format(time.RFC3339),
	}
}

func MapToListResponse(tasks []Task) []TaskResponse {
	resp := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = MapToResponse(t)
	}
	return resp
}

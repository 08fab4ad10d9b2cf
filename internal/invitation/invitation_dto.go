package invitation

import (
	"time"

	"go-taskhub/internal/user"
)

type GenerateInvitationRequest struct {
	CompanyID string `json:"companyId" binding:"omitempty,uuid"`
	Role      string `json:"role" binding:"required"`
	TTLDays   *int   `json:"ttlDays"`
}

// GenerateInvitationResponse is the only place the raw token ever
// appears.
type GenerateInvitationResponse struct {
	Token     string `json:"token"`
	Link      string `json:"link"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
}

type ValidateInvitationResponse struct {
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
	InvitedBy   string `json:"invited_by"`
	ExpiresAt   string `json:"expires_at"`
}

type ConsumeInvitationRequest struct {
	Token    string `json:"token" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	JobTitle string `json:"jobTitle"`
}

type ConsumeInvitationResponse struct {
	User user.UserResponse `json:"user"`
}

type InvitationResponse struct {
	ID        string  `json:"id"`
	CompanyID string  `json:"company_id"`
	Role      string  `json:"role"`
	CreatedBy string  `json:"created_by"`
	ExpiresAt string  `json:"expires_at"`
	IsUsed    bool    `json:"is_used"`
	UsedBy    *string `json:"used_by,omitempty"`
	UsedAt    *string `json:"used_at,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func mapToResponse(inv Invitation) InvitationResponse {
	resp := InvitationResponse{
		ID:        inv.ID.String(),
		CompanyID: inv.CompanyID.String(),
		Role:      string(inv.Role),
		CreatedBy: inv.CreatedBy.String(),
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
		IsUsed:    inv.IsUsed,
		CreatedAt: inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.UsedBy != nil {
		v := inv.UsedBy.String()
		resp.UsedBy = &v
	}
	if inv.UsedAt != nil {
		v := inv.UsedAt.Format(time.RFC3339)
		resp.UsedAt = &v
	}
	return resp
}

func mapToListResponse(invs []Invitation) []InvitationResponse {
	resp := make([]InvitationResponse, len(invs))
	for i, inv := range invs {
		resp[i] = mapToResponse(inv)
	}
	return resp
}

package user

import "time"

type UserResponse struct {
	ID        string  `json:"id"`
	CompanyID *string `json:"company_id,omitempty"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	JobTitle  string  `json:"job_title,omitempty"`
	IsActive  bool    `json:"is_active"`
	LastLogin *string `json:"last_login,omitempty"`
}

func MapToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:       u.ID.String(),
		Name:     u.Name,
		Email:    u.Email,
		Role:     string(u.Role),
		JobTitle: u.JobTitle,
		IsActive: u.IsActive,
	}
	if u.CompanyID != nil {
		v := u.CompanyID.String()
		resp.CompanyID = &v
	}
	if u.LastLogin != nil {
		v := u.LastLogin.Format(time.RFC3339)
		resp.LastLogin = &v
	}
	return resp
}

func MapToListResponse(users []User) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = MapToResponse(u)
	}
	return resp
}

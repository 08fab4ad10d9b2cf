package auth

import "go-taskhub/internal/user"

type RegisterRequest struct {
	CompanyID string `json:"companyId" binding:"required,uuid"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	JobTitle  string `json:"jobTitle"`
	Role      string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	JobTitle string `json:"jobTitle"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

// AuthResponse is the session payload returned by register/login/me.
type AuthResponse struct {
	User user.UserResponse `json:"user"`
}

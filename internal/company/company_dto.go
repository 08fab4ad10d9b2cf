package company

type RegisterCompanyRequest struct {
	CompanyName   string `json:"companyName" binding:"required"`
	Industry      string `json:"industry" binding:"required"`
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zipCode"`
	Country       string `json:"country"`
	AdminName     string `json:"adminName" binding:"required"`
	AdminEmail    string `json:"adminEmail" binding:"required,email"`
	AdminPassword string `json:"adminPassword" binding:"required,min=6"`
	AdminJobTitle string `json:"adminJobTitle"`
}

type CompanyResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Street   string `json:"street,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zipCode,omitempty"`
	Country  string `json:"country,omitempty"`
	IsActive bool   `json:"is_active"`
}

type RegisterCompanyResponse struct {
	Company CompanyResponse `json:"company"`
	AdminID string          `json:"admin_id"`
}

func mapToResponse(c Company) CompanyResponse {
	return CompanyResponse{
		ID:       c.ID.String(),
		Name:     c.Name,
		Industry: c.Industry,
		Street:   c.Street,
		City:     c.City,
		State:    c.State,
		ZipCode:  c.ZipCode,
		Country:  c.Country,
		IsActive: c.IsActive,
	}
}

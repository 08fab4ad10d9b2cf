package companyerrors

import (
	"net/http"

	"go-taskhub/internal/shared/apperror"
)

var (
	ErrCompanyNotFound = apperror.New(
		apperror.CodeNotFound,
		"Company not found",
		http.StatusNotFound,
	)

	ErrCompanyNameTaken = apperror.New(
		apperror.CodeConflict,
		"Company name already exists",
		http.StatusConflict,
	)

	ErrCompanyInactive = apperror.New(
		apperror.CodeForbidden,
		"Company is not active",
		http.StatusForbidden,
	)

	ErrAdminEmailTaken = apperror.New(
		apperror.CodeConflict,
		"Admin user already exists",
		http.StatusConflict,
	)

	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid company ID",
		http.StatusBadRequest,
	)
)

package taskerrors

import (
	"net/http"

	"go-taskhub/internal/shared/apperror"
)

var (
	ErrTaskNotFound = apperror.New(
		apperror.CodeNotFound,
		"Task not found",
		http.StatusNotFound,
	)

	ErrInvalidTaskID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid task ID",
		http.StatusBadRequest,
	)

	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid task status",
		http.StatusBadRequest,
	)

	ErrInvalidPriority = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid task priority",
		http.StatusBadRequest,
	)

	ErrSelfAssignmentOnly = apperror.New(
		apperror.CodeForbidden,
		"Employees can only create tasks for themselves",
		http.StatusForbidden,
	)

	ErrAssigneeNotInCompany = apperror.New(
		apperror.CodeInvalidInput,
		"All assignees must be active members of the company",
		http.StatusBadRequest,
	)

	ErrAttachmentNotFound = apperror.New(
		apperror.CodeNotFound,
		"Attachment not found",
		http.StatusNotFound,
	)

	ErrUploadFailed = apperror.New(
		apperror.CodeServiceUnavailable,
		"File upload failed",
		http.StatusServiceUnavailable,
	)
)

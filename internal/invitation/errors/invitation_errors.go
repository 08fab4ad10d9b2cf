package invitationerrors

import (
	"net/http"

	"go-taskhub/internal/shared/apperror"
)

var (
	ErrInvitationNotFound = apperror.New(
		apperror.CodeNotFound,
		"Invitation not found",
		http.StatusNotFound,
	)

	ErrInvitationAlreadyUsed = apperror.New(
		apperror.CodeConflict,
		"Invitation has already been used",
		http.StatusConflict,
	)

	ErrInvitationExpired = apperror.New(
		apperror.CodeExpired,
		"Invitation has expired",
		http.StatusGone,
	)

	ErrInvitationRevoked = apperror.New(
		apperror.CodeInvalidState,
		"Used invitations cannot be revoked",
		http.StatusConflict,
	)

	ErrTTLOutOfRange = apperror.New(
		apperror.CodeInvalidInput,
		"Invitation TTL must be between 1 and 30 days",
		http.StatusBadRequest,
	)

	ErrRoleNotInvitable = apperror.New(
		apperror.CodeInvalidInput,
		"Role cannot be granted through an invitation",
		http.StatusBadRequest,
	)

	ErrInvalidInvitationID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid invitation ID",
		http.StatusBadRequest,
	)
)

package dto

import (
	"errors"
	"net/http"

	"github.com/Z3RO333/formularios/internal/domain/shared"
)

// Error codes returned in ErrorInfo.Code. Domain errors keep their own code;
// the rest are produced by the HTTP layer itself.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeSelfMerge         = "SELF_MERGE"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeStorage           = "STORAGE_ERROR"

	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// genericStorageMessage hides infrastructure details from clients
const genericStorageMessage = "An unexpected error occurred"

var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation:        http.StatusBadRequest,
	shared.KindNotFound:          http.StatusNotFound,
	shared.KindInvalidTransition: http.StatusConflict,
	shared.KindSelfMerge:         http.StatusUnprocessableEntity,
	shared.KindConflict:          http.StatusConflict,
	shared.KindStorage:           http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status for a domain error kind
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError maps err to a status code and error body. Errors that are not
// DomainErrors, and storage errors, get a generic 500 message.
func FromError(err error, requestID string) (int, Response) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, NewErrorResponse(ErrCodeInternal, genericStorageMessage, requestID)
	}

	status := StatusForKind(de.Kind)
	message := de.Message
	if de.Kind == shared.KindStorage {
		message = genericStorageMessage
	}
	resp := NewErrorResponse(de.Code, message, requestID)
	resp.Error.Details = de.Fields
	return status, resp
}

package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewFieldRequired reports a missing mandatory field, naming the offending
// field so the caller can correct the request.
func NewFieldRequired(field string) error {
	return NewDomainError("FIELD_REQUIRED", fmt.Sprintf("%s is required", field),
		http.StatusBadRequest, map[string]any{"field": field})
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewTicketNotFound reports an absent ticket.
func NewTicketNotFound(ticketID string) error {
	return NewDomainError("TICKET_NOT_FOUND", "ticket not found",
		http.StatusNotFound, map[string]any{"ticket_id": ticketID})
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource),
		http.StatusNotFound, details)
}

// NewAccessDenied reports an authorization failure. The message never leaks
// other actors' data; callers supply the contextual wording.
func NewAccessDenied(message string) error {
	return NewDomainError("ACCESS_DENIED", message, http.StatusForbidden, nil)
}

// NewStaleUpdate reports an optimistic-lock conflict: the presented version
// no longer matches the stored one and nothing was applied.
func NewStaleUpdate() error {
	return NewDomainError("STALE_UPDATE",
		"ticket has been modified by another user, refresh and try again",
		http.StatusConflict, nil)
}

// NewInvalidAssignee reports an assignment target that does not resolve to
// an agent or admin.
func NewInvalidAssignee(assigneeID string) error {
	return NewDomainError("INVALID_ASSIGNEE", "can only assign to agents or admins",
		http.StatusBadRequest, map[string]any{"assignee_id": assigneeID})
}

// NewInvalidParentComment reports a parent reference that is missing or
// belongs to a different ticket.
func NewInvalidParentComment() error {
	return NewDomainError("INVALID_PARENT_COMMENT", "invalid parent comment",
		http.StatusBadRequest, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewRateLimited reports that the caller exhausted the request window.
func NewRateLimited(retryAfterSeconds int) error {
	return NewDomainError("RATE_LIMIT", "rate limit exceeded",
		http.StatusTooManyRequests, map[string]any{"retry_after_seconds": retryAfterSeconds})
}

func NewConflict(code, message string, details map[string]any) error {
	return NewDomainError(code, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Store-level errors
// are never retried here; they surface as a generic internal failure.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		var de *DomainError
		if errors.As(NewNotFound("resource", nil), &de) {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError is a convenience wrapper returning the error interface.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

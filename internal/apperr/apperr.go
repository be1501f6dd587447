// Package apperr defines the error taxonomy shared by the reservation engine,
// its storage layer and the HTTP handlers.
//
// Services return the sentinels below (possibly wrapped with fmt.Errorf and %w);
// callers match them with errors.Is and map them to transport codes with
// HTTPStatus.
package apperr

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// Code is a machine-readable error code returned to API clients.
type Code string

const (
	CodeCampaignNotFound     Code = "CAMPAIGN_NOT_FOUND"
	CodeCampaignInactive     Code = "CAMPAIGN_INACTIVE"
	CodeInvalidCampaign      Code = "INVALID_CAMPAIGN"
	CodeActiveCampaignExists Code = "ACTIVE_CAMPAIGN_EXISTS"
	CodeInvalidSlot          Code = "INVALID_SLOT"
	CodeAlreadyReserved      Code = "ALREADY_RESERVED"
	CodeSlotFull             Code = "SLOT_FULL"
	CodeMemberNotFound       Code = "MEMBER_NOT_FOUND"
	CodeValidation           Code = "VALIDATION"
	CodeStorageConflict      Code = "STORAGE_CONFLICT"
	CodeStorageTimeout       Code = "STORAGE_TIMEOUT"
	CodeStorageUnavailable   Code = "STORAGE_UNAVAILABLE"
	CodeInternal             Code = "INTERNAL"
)

// Error is a typed application error.
type Error struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrCampaignNotFound     = &Error{Code: CodeCampaignNotFound, Message: "campaign not found"}
	ErrCampaignInactive     = &Error{Code: CodeCampaignInactive, Message: "campaign is not accepting reservations"}
	ErrInvalidCampaign      = &Error{Code: CodeInvalidCampaign, Message: "invalid campaign"}
	ErrActiveCampaignExists = &Error{Code: CodeActiveCampaignExists, Message: "another campaign is already active"}
	ErrInvalidSlot          = &Error{Code: CodeInvalidSlot, Message: "slot index out of range"}
	ErrAlreadyReserved      = &Error{Code: CodeAlreadyReserved, Message: "slot already reserved by member"}
	ErrSlotFull             = &Error{Code: CodeSlotFull, Message: "slot is full"}
	ErrMemberNotFound       = &Error{Code: CodeMemberNotFound, Message: "member not found"}
	ErrValidation           = &Error{Code: CodeValidation, Message: "validation failed"}

	// Storage failures. Conflict is the optimistic-concurrency retry signal;
	// timeout and unavailable are surfaced to callers as retryable.
	ErrStorageConflict    = &Error{Code: CodeStorageConflict, Message: "storage conflict", Retryable: true}
	ErrStorageTimeout     = &Error{Code: CodeStorageTimeout, Message: "storage timeout", Retryable: true}
	ErrStorageUnavailable = &Error{Code: CodeStorageUnavailable, Message: "storage unavailable", Retryable: true}
)

// ValidationError reports the request fields that failed validation.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	if e, ok := As(err); ok {
		return e.Retryable
	}
	return false
}

// HTTPStatus maps an error to the status code used by the API.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeCampaignNotFound, CodeMemberNotFound:
		return http.StatusNotFound
	case CodeInvalidSlot, CodeInvalidCampaign, CodeValidation:
		return http.StatusBadRequest
	case CodeCampaignInactive, CodeSlotFull, CodeAlreadyReserved, CodeActiveCampaignExists, CodeStorageConflict:
		return http.StatusConflict
	case CodeStorageTimeout:
		return http.StatusGatewayTimeout
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

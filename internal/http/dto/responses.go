package dto

import "github.com/prayer-clock/backend/internal/models"

type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type ReserveResponse struct {
	Signup          *models.Signup `json:"signup"`
	AlreadyReserved bool           `json:"already_reserved"`
}

type CancelResponse struct {
	Removed bool `json:"removed"`
}

package models

import "errors"

// Error classes surfaced by the core. Wrap with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrNoApprover       = errors.New("could not determine approver")
)

// ErrorResponse is the JSON error envelope returned by handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

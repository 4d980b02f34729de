package models

import "fmt"

// Pipeline stage names used to tag error records.
const (
	StageFetch       = "fetch"
	StageRender      = "render"
	StageInteraction = "interaction"
	StageParse       = "parse"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeFetch        = "FETCH_FAILED"
	ErrCodeRender       = "RENDER_FAILED"
	ErrCodeInteraction  = "INTERACTION_FAILED"
	ErrCodeParse        = "PARSE_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorRecord is one non-fatal failure captured during a scrape.
// The pipeline always produces a best-effort result; records are how
// callers learn what was lost along the way.
type ErrorRecord struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ErrorDetail is the structured error in API-level failure responses
// (bad input, auth, rate limiting; not scrape-stage failures).
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StageError is the internal error type carrying the originating pipeline
// stage and an error code. It implements the error interface and supports
// wrapping via Unwrap.
type StageError struct {
	Stage   string
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a StageError for the given stage and code.
func NewStageError(stage, code, message string, err error) *StageError {
	return &StageError{Stage: stage, Code: code, Message: message, Err: err}
}

// Record converts the error to the wire-level ErrorRecord. The wrapped
// cause is included in the message so callers can diagnose failures
// without access to server logs.
func (e *StageError) Record() ErrorRecord {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return ErrorRecord{Stage: e.Stage, Message: msg}
}

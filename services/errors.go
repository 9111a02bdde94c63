package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation"
	ErrorTypeNoActiveCorpus      ErrorType = "no_active_corpus"
	ErrorTypeStoreNotInitialized ErrorType = "store_not_initialized"
	ErrorTypeBackendUnavailable  ErrorType = "backend_unavailable"
	ErrorTypeGenerationFailed    ErrorType = "generation_failed"
	ErrorTypeInternal            ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// User-facing messages. These are part of the HTTP contract.
const (
	MsgQuestionRequired   = "Question is required."
	MsgInvalidBody        = "Invalid request body."
	MsgNoActiveCorpus     = "No vector store is active. Please upload a PDF first."
	MsgNoFile             = "No file uploaded."
	MsgUnsupportedFile    = "Unsupported file type."
	MsgEmptyDocument      = "Document contains no extractable text."
	MsgAnswerFailed       = "Failed to generate answer."
	MsgFileProcessFailed  = "Error processing file."
	MsgFileProcessSuccess = "File processed successfully"
)

// Domain error variables

var (
	// Validation Errors
	ErrQuestionRequired = NewDomainError(ErrorTypeValidation, MsgQuestionRequired, nil)
	ErrInvalidBody      = NewDomainError(ErrorTypeValidation, MsgInvalidBody, nil)
	ErrNoFile           = NewDomainError(ErrorTypeValidation, MsgNoFile, nil)
	ErrUnsupportedFile  = NewDomainError(ErrorTypeValidation, MsgUnsupportedFile, nil)
	ErrEmptyDocument    = NewDomainError(ErrorTypeValidation, MsgEmptyDocument, nil)

	// Corpus Errors
	ErrNoActiveCorpus      = NewDomainError(ErrorTypeNoActiveCorpus, MsgNoActiveCorpus, nil)
	ErrStoreNotInitialized = NewDomainError(ErrorTypeStoreNotInitialized, "vector store is not initialized", nil)

	// Backend Errors
	ErrBackendUnavailable = NewDomainError(ErrorTypeBackendUnavailable, "generation backend unavailable", nil)
	ErrGenerationFailed   = NewDomainError(ErrorTypeGenerationFailed, "generation failed", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsNoActiveCorpusError checks if an error reports a missing corpus
func IsNoActiveCorpusError(err error) bool {
	return hasType(err, ErrorTypeNoActiveCorpus)
}

// IsStoreNotInitializedError checks if an error reports an uninitialized store
func IsStoreNotInitializedError(err error) bool {
	return hasType(err, ErrorTypeStoreNotInitialized)
}

// IsBackendUnavailableError checks if an error reports an unreachable generation backend
func IsBackendUnavailableError(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// IsGenerationFailedError checks if an error reports a failed generation call
func IsGenerationFailedError(err error) bool {
	return errors.Is(err, ErrGenerationFailed)
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return errors.Is(err, ErrInternal)
}

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the message of a domain error, or empty string if not a domain error
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapBackendUnavailable wraps a failed backend initialization
func WrapBackendUnavailable(err error) *DomainError {
	return NewDomainError(ErrorTypeBackendUnavailable, ErrBackendUnavailable.Message, err)
}

// WrapGenerationFailed wraps a failed generation call; the backend error stays in the chain
func WrapGenerationFailed(err error) *DomainError {
	return NewDomainError(ErrorTypeGenerationFailed, ErrGenerationFailed.Message, err)
}

package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeExtraction   = "EXTRACTION_ERROR"
	ErrCodeGeneration   = "GENERATION_ERROR"
	ErrCodeEmbedding    = "EMBEDDING_ERROR"
	ErrCodePersistence  = "PERSISTENCE_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingFile       = NewDomainError(ErrCodeValidation, "no file provided")
	ErrMissingURL        = NewDomainError(ErrCodeValidation, "url is required")
	ErrInvalidSourceType = NewDomainError(ErrCodeValidation, "invalid source type")
	ErrInvalidGitHubURL  = NewDomainError(ErrCodeValidation, "could not parse owner/repo from url")
	ErrInvalidYouTubeURL = NewDomainError(ErrCodeValidation, "could not resolve a video id from url")
	ErrFileTooLarge      = NewDomainError(ErrCodeValidation, "uploaded file exceeds the size limit")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrProjectNotFound  = NewDomainError(ErrCodeNotFound, "project not found")
)

// Extraction errors
var (
	ErrNoTextInPDF         = NewDomainError(ErrCodeExtraction, "no text could be extracted from the pdf")
	ErrTranscriptNotFound  = NewDomainError(ErrCodeNotFound, "no transcript available for this video")
	ErrRepositoryFetchFail = NewDomainError(ErrCodeExtraction, "failed to fetch repository data")
)

// Generation errors
var (
	ErrEmptyCompletion  = NewDomainError(ErrCodeGeneration, "model returned empty content")
	ErrUnparsableOutput = NewDomainError(ErrCodeGeneration, "model output is not valid JSON")
)

// Authorization errors
var (
	ErrMissingToken = NewDomainError(ErrCodeUnauthorized, "missing bearer token")
	ErrInvalidToken = NewDomainError(ErrCodeUnauthorized, "invalid or expired token")
)

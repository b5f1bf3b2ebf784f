package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	ErrDecode          = errors.New("document could not be decoded")
	ErrModelExtraction = errors.New("model extraction failed")
	ErrRefinement      = errors.New("ocr refinement failed")
	ErrZeroDenominator = errors.New("zero denominator")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrUploadRejected  = errors.New("upload rejected")
	ErrStaleDocument   = errors.New("document has been replaced")
)

// Error codes carried by AppError.
const (
	CodeConfig          = "CONFIG_ERROR"
	CodeDecode          = "DECODE_ERROR"
	CodeModelExtraction = "MODEL_EXTRACTION_ERROR"
	CodeDegenerate      = "ARITHMETIC_DEGENERATE"
	CodeQuota           = "QUOTA_EXCEEDED"
	CodeUpload          = "UPLOAD_REJECTED"
	CodeDatabase        = "DATABASE_ERROR"
	CodeNotFound        = "NOT_FOUND"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewDecodeError rejects a whole upload. err may be nil.
func NewDecodeError(message string, err error) error {
	if err != nil {
		return NewAppError(CodeDecode, message, fmt.Errorf("%w: %v", ErrDecode, err))
	}
	return NewAppError(CodeDecode, message, ErrDecode)
}

func NewModelExtractionError(message string, err error) error {
	if err != nil {
		return NewAppError(CodeModelExtraction, message, fmt.Errorf("%w: %w", ErrModelExtraction, err))
	}
	return NewAppError(CodeModelExtraction, message, ErrModelExtraction)
}

func NewDegenerateError(message string) error {
	return NewAppError(CodeDegenerate, message, ErrZeroDenominator)
}

func NewUploadError(message string) error {
	return NewAppError(CodeUpload, message, ErrUploadRejected)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

// ToStatus maps the error taxonomy onto gRPC status codes.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrZeroDenominator),
		errors.Is(err, ErrDecode),
		errors.Is(err, ErrUploadRejected),
		errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrQuotaExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrModelExtraction):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrStaleDocument):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

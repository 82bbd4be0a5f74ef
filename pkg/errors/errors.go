package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Setup errors
	ErrNotInitialized ErrorCode = "NOT_INITIALIZED"
	ErrKeyNotFound    ErrorCode = "KEY_NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrStateParse  ErrorCode = "STATE_PARSE"

	// FileSystem errors
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrFileWrite     ErrorCode = "FILE_WRITE"
	ErrPermission    ErrorCode = "PERMISSION"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
	ErrSourceMissing ErrorCode = "SOURCE_MISSING"

	// Repository errors
	ErrRepository     ErrorCode = "REPOSITORY"
	ErrRemoteNotFound ErrorCode = "REMOTE_NOT_FOUND"
	ErrPush           ErrorCode = "PUSH"
	ErrPushRejected   ErrorCode = "PUSH_REJECTED"
	ErrFetch          ErrorCode = "FETCH"
	ErrDiverged       ErrorCode = "DIVERGED"
	ErrCommitNotFound ErrorCode = "COMMIT_NOT_FOUND"
	ErrRevertConflict ErrorCode = "REVERT_CONFLICT"

	// Crypto errors
	ErrKeyCorrupt          ErrorCode = "KEY_CORRUPT"
	ErrEncrypt             ErrorCode = "ENCRYPT"
	ErrWrongRecipient      ErrorCode = "WRONG_RECIPIENT"
	ErrMalformedCiphertext ErrorCode = "MALFORMED_CIPHERTEXT"

	// Reconciliation errors
	ErrConflict     ErrorCode = "CONFLICT"
	ErrPartialApply ErrorCode = "PARTIAL_APPLY"

	// Diagnostics errors
	ErrUnhealthy ErrorCode = "UNHEALTHY"
)

// Category groups error codes into the failure classes callers act on.
type Category string

const (
	CategoryUnknown        Category = "unknown"
	CategoryUsage          Category = "usage"
	CategoryNotInitialized Category = "not-initialized"
	CategoryIO             Category = "io"
	CategoryParse          Category = "parse"
	CategoryRepository     Category = "repository"
	CategoryCrypto         Category = "crypto"
	CategoryConflict       Category = "conflict"
)

var categories = map[ErrorCode]Category{
	ErrInvalidInput:  CategoryUsage,
	ErrAlreadyExists: CategoryUsage,
	ErrNotFound:      CategoryIO,

	ErrNotInitialized: CategoryNotInitialized,
	ErrKeyNotFound:    CategoryNotInitialized,

	ErrConfigLoad:  CategoryIO,
	ErrConfigParse: CategoryParse,
	ErrStateParse:  CategoryParse,

	ErrFileAccess:    CategoryIO,
	ErrFileWrite:     CategoryIO,
	ErrPermission:    CategoryIO,
	ErrSymlinkCreate: CategoryIO,
	ErrDirCreate:     CategoryIO,
	ErrSourceMissing: CategoryIO,

	ErrRepository:     CategoryRepository,
	ErrRemoteNotFound: CategoryRepository,
	ErrPush:           CategoryRepository,
	ErrPushRejected:   CategoryRepository,
	ErrFetch:          CategoryRepository,
	ErrDiverged:       CategoryRepository,
	ErrCommitNotFound: CategoryRepository,
	ErrRevertConflict: CategoryRepository,

	ErrKeyCorrupt:          CategoryCrypto,
	ErrEncrypt:             CategoryCrypto,
	ErrWrongRecipient:      CategoryCrypto,
	ErrMalformedCiphertext: CategoryCrypto,

	ErrConflict:     CategoryConflict,
	ErrPartialApply: CategoryConflict,
}

// Category returns the failure class of the code
func (c ErrorCode) Category() Category {
	if cat, ok := categories[c]; ok {
		return cat
	}
	return CategoryUnknown
}

// ConfigSyncError represents a structured error with code and details
type ConfigSyncError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ConfigSyncError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ConfigSyncError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ConfigSyncError) Is(target error) bool {
	var targetErr *ConfigSyncError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ConfigSyncError with the given code and message
func New(code ErrorCode, message string) *ConfigSyncError {
	return &ConfigSyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ConfigSyncError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ConfigSyncError {
	return &ConfigSyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ConfigSyncError
func Wrap(err error, code ErrorCode, message string) *ConfigSyncError {
	if err == nil {
		return nil
	}
	return &ConfigSyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ConfigSyncError {
	if err == nil {
		return nil
	}
	return &ConfigSyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ConfigSyncError) WithDetail(key string, value interface{}) *ConfigSyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var csErr *ConfigSyncError
	if errors.As(err, &csErr) {
		return csErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ConfigSyncError
func GetErrorCode(err error) ErrorCode {
	var csErr *ConfigSyncError
	if errors.As(err, &csErr) {
		return csErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ConfigSyncError
func GetErrorDetails(err error) map[string]interface{} {
	var csErr *ConfigSyncError
	if errors.As(err, &csErr) {
		return csErr.Details
	}
	return nil
}

// CategoryOf returns the category of the outermost ConfigSyncError in err's chain.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	return GetErrorCode(err).Category()
}

// ExitCode maps an error to the process exit status used by the CLI.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CategoryOf(err) {
	case CategoryUsage:
		return 2
	case CategoryNotInitialized:
		return 3
	case CategoryIO:
		return 4
	case CategoryParse:
		return 5
	case CategoryRepository:
		return 6
	case CategoryCrypto:
		return 7
	case CategoryConflict:
		return 8
	default:
		return 1
	}
}

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/arthur-debert/configsync/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "not_initialized_error",
			code:    errors.ErrNotInitialized,
			message: "configsync not initialized",
			wantStr: "[NOT_INITIALIZED] configsync not initialized",
		},
		{
			name:    "conflict_error",
			code:    errors.ErrConflict,
			message: "destination occupied",
			wantStr: "[CONFLICT] destination occupied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}

			if err.Details == nil {
				t.Error("New() details should be initialized")
			}

			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrapf(baseErr, errors.ErrFileWrite, "cannot write %s", "key.txt")

		if err.Wrapped != baseErr {
			t.Error("Wrapf() should preserve wrapped error")
		}

		wantStr := "[FILE_WRITE] cannot write key.txt: base error"
		if got := err.Error(); got != wantStr {
			t.Errorf("Error() = %q, want %q", got, wantStr)
		}
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		if err := errors.Wrap(nil, errors.ErrInternal, "internal error"); err != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})
}

func TestIsMatchesByCode(t *testing.T) {
	err1 := errors.New(errors.ErrDiverged, "histories diverged")
	err2 := errors.New(errors.ErrDiverged, "other message")
	err3 := errors.New(errors.ErrRemoteNotFound, "no origin")

	if !stderrors.Is(err1, err2) {
		t.Error("errors.Is() should match errors with the same code")
	}
	if stderrors.Is(err1, err3) {
		t.Error("errors.Is() should not match different codes")
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected errors.Category
		exit     int
	}{
		{"nil", nil, errors.CategoryUnknown, 0},
		{"plain", stderrors.New("boom"), errors.CategoryUnknown, 1},
		{"usage", errors.New(errors.ErrInvalidInput, "bad"), errors.CategoryUsage, 2},
		{"missing key", errors.New(errors.ErrKeyNotFound, "no key"), errors.CategoryNotInitialized, 3},
		{"io", errors.New(errors.ErrSymlinkCreate, "link"), errors.CategoryIO, 4},
		{"parse", errors.New(errors.ErrConfigParse, "toml"), errors.CategoryParse, 5},
		{"diverged", errors.New(errors.ErrDiverged, "ff"), errors.CategoryRepository, 6},
		{"push transport", errors.New(errors.ErrPush, "unreachable"), errors.CategoryRepository, 6},
		{"wrong recipient", errors.New(errors.ErrWrongRecipient, "age"), errors.CategoryCrypto, 7},
		{"conflict", errors.New(errors.ErrConflict, "occupied"), errors.CategoryConflict, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.CategoryOf(tt.err); got != tt.expected {
				t.Errorf("CategoryOf() = %v, want %v", got, tt.expected)
			}
			if got := errors.ExitCode(tt.err); got != tt.exit {
				t.Errorf("ExitCode() = %v, want %v", got, tt.exit)
			}
		})
	}
}

func TestIsErrorCode(t *testing.T) {
	wrapped := errors.Wrap(stderrors.New("base"), errors.ErrFileAccess, "denied")

	if !errors.IsErrorCode(wrapped, errors.ErrFileAccess) {
		t.Error("IsErrorCode() should match wrapped code")
	}
	if errors.IsErrorCode(stderrors.New("standard"), errors.ErrFileAccess) {
		t.Error("IsErrorCode() should not match standard errors")
	}
	if errors.IsErrorCode(nil, errors.ErrFileAccess) {
		t.Error("IsErrorCode() should not match nil")
	}
}

func TestErrorChaining(t *testing.T) {
	rootCause := stderrors.New("root cause")
	fileErr := errors.Wrap(rootCause, errors.ErrFileAccess, "cannot read file")
	configErr := errors.Wrap(fileErr, errors.ErrConfigLoad, "failed to load config")

	if !errors.IsErrorCode(configErr, errors.ErrConfigLoad) {
		t.Error("Top level should have ErrConfigLoad code")
	}

	var inner *errors.ConfigSyncError
	if !stderrors.As(configErr.Unwrap(), &inner) || inner.Code != errors.ErrFileAccess {
		t.Error("Middle error should have ErrFileAccess code")
	}

	if !stderrors.Is(configErr, rootCause) {
		t.Error("Should find root cause with errors.Is")
	}

	if got := errors.GetErrorDetails(configErr); got == nil {
		t.Error("GetErrorDetails() should return the details map")
	}
}

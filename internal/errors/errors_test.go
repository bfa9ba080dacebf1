package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSeverityString(t *testing.T) {
	testCases := []struct {
		severity ErrorSeverity
		expected string
	}{
		{ErrorSeverityInfo, "info"},
		{ErrorSeverityWarning, "warning"},
		{ErrorSeverityError, "error"},
		{ErrorSeverityFatal, "fatal"},
		{ErrorSeverity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.severity.String())
		})
	}
}

func TestBuildErrorError(t *testing.T) {
	testCases := []struct {
		name     string
		err      BuildError
		expected string
	}{
		{
			name: "with location",
			err: BuildError{
				File:     "/src/App.vue",
				Line:     10,
				Column:   5,
				Message:  "unexpected token",
				Severity: ErrorSeverityError,
			},
			expected: "/src/App.vue:10:5: error: unexpected token",
		},
		{
			name: "file only",
			err: BuildError{
				File:     "/src/App.vue",
				Message:  "\n  Error compiling template:\n\n  <div/>\n",
				Severity: ErrorSeverityError,
			},
			expected: "/src/App.vue: error: Error compiling template:\n\n  <div/>",
		},
		{
			name:     "no file",
			err:      BuildError{Message: "tip", Severity: ErrorSeverityWarning},
			expected: "unknown: warning: tip",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestNewErrorCollector(t *testing.T) {
	collector := NewErrorCollector()

	assert.NotNil(t, collector)
	assert.Empty(t, collector.GetErrors())
	assert.Empty(t, collector.GetAllErrors())
	assert.Equal(t, 0, collector.Len())
	assert.False(t, collector.HasErrors())
}

func TestErrorCollectorAdd(t *testing.T) {
	collector := NewErrorCollector()

	collector.Add(BuildError{File: "/src/A.vue", Message: "first", Severity: ErrorSeverityWarning})
	stamped := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	collector.Add(BuildError{File: "/src/B.vue", Message: "second", Severity: ErrorSeverityError, Timestamp: stamped})

	errs := collector.GetErrors()
	require.Len(t, errs, 2)
	assert.Equal(t, "first", errs[0].Message)
	assert.False(t, errs[0].Timestamp.IsZero(), "missing timestamps are filled in")
	assert.Equal(t, stamped, errs[1].Timestamp)
}

func TestErrorCollectorAddError(t *testing.T) {
	collector := NewErrorCollector()

	collector.AddError(nil)
	assert.Equal(t, 0, collector.Len())

	collector.Add(BuildError{Message: "tip", Severity: ErrorSeverityInfo})
	collector.AddError(fmt.Errorf("engine crashed"))

	all := collector.GetAllErrors()
	require.Len(t, all, 2)
	assert.Equal(t, "unknown: info: tip", all[0].Error())
	assert.Equal(t, "engine crashed", all[1].Error())
	assert.True(t, collector.HasErrors())
}

func TestErrorCollectorGetErrorsIsCopy(t *testing.T) {
	collector := NewErrorCollector()
	collector.Add(BuildError{Message: "original", Severity: ErrorSeverityError})

	errs := collector.GetErrors()
	errs[0].Message = "changed"

	assert.Equal(t, "original", collector.GetErrors()[0].Message)
}

func TestErrorCollectorHasErrors(t *testing.T) {
	testCases := []struct {
		name       string
		severities []ErrorSeverity
		expected   bool
	}{
		{name: "empty", expected: false},
		{name: "info only", severities: []ErrorSeverity{ErrorSeverityInfo}, expected: false},
		{name: "warnings only", severities: []ErrorSeverity{ErrorSeverityWarning, ErrorSeverityWarning}, expected: false},
		{name: "error", severities: []ErrorSeverity{ErrorSeverityWarning, ErrorSeverityError}, expected: true},
		{name: "fatal", severities: []ErrorSeverity{ErrorSeverityFatal}, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			collector := NewErrorCollector()
			for _, s := range tc.severities {
				collector.Add(BuildError{Message: "m", Severity: s})
			}
			assert.Equal(t, tc.expected, collector.HasErrors())
		})
	}
}

func TestErrorCollectorBySeverity(t *testing.T) {
	collector := NewErrorCollector()
	collector.Add(BuildError{Message: "w1", Severity: ErrorSeverityWarning})
	collector.Add(BuildError{Message: "e1", Severity: ErrorSeverityError})
	collector.Add(BuildError{Message: "w2", Severity: ErrorSeverityWarning})

	warnings := collector.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "w1", warnings[0].Message)
	assert.Equal(t, "w2", warnings[1].Message)

	assert.Len(t, collector.GetBySeverity(ErrorSeverityError), 1)
	assert.Empty(t, collector.GetBySeverity(ErrorSeverityFatal))
}

func TestErrorCollectorClear(t *testing.T) {
	collector := NewErrorCollector()
	collector.Add(BuildError{Message: "m", Severity: ErrorSeverityError})
	collector.AddError(fmt.Errorf("general"))
	require.True(t, collector.HasErrors())

	collector.Clear()

	assert.False(t, collector.HasErrors())
	assert.Equal(t, 0, collector.Len())
}

func TestErrorCollectorGetErrorsByFile(t *testing.T) {
	collector := NewErrorCollector()
	collector.Add(BuildError{File: "/src/A.vue", Message: "a1", Severity: ErrorSeverityError})
	collector.Add(BuildError{File: "/src/B.vue", Message: "b1", Severity: ErrorSeverityError})
	collector.Add(BuildError{File: "/src/A.vue", Message: "a2", Severity: ErrorSeverityWarning})

	byFile := collector.GetErrorsByFile("/src/A.vue")
	require.Len(t, byFile, 2)
	assert.Equal(t, "a1", byFile[0].Message)
	assert.Equal(t, "a2", byFile[1].Message)
	assert.Empty(t, collector.GetErrorsByFile("/src/C.vue"))
}

func TestErrorCollectorGetErrorsByComponent(t *testing.T) {
	collector := NewErrorCollector()
	collector.Add(BuildError{Component: "Card", Message: "c", Severity: ErrorSeverityError})
	collector.Add(BuildError{Component: "List", Message: "l", Severity: ErrorSeverityError})

	byComponent := collector.GetErrorsByComponent("Card")
	require.Len(t, byComponent, 1)
	assert.Equal(t, "c", byComponent[0].Message)
	assert.Empty(t, collector.GetErrorsByComponent("Missing"))
}

func TestErrorCollectorSummary(t *testing.T) {
	collector := NewErrorCollector()
	assert.Empty(t, collector.Summary())

	collector.Add(BuildError{File: "a.vue", Message: "tip", Severity: ErrorSeverityInfo})
	collector.Add(BuildError{File: "a.vue", Message: "careful", Severity: ErrorSeverityWarning})
	collector.Add(BuildError{File: "a.vue", Message: "broken", Severity: ErrorSeverityError})
	collector.AddError(fmt.Errorf("general failure"))

	lines := strings.Split(strings.TrimSuffix(collector.Summary(), "\n"), "\n")
	assert.Equal(t, []string{
		"a.vue: error: broken",
		"a.vue: warning: careful",
		"a.vue: info: tip",
		"general failure",
	}, lines)
}

func TestErrorCollectorConcurrency(t *testing.T) {
	collector := NewErrorCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.Add(BuildError{
				Component: fmt.Sprintf("Component%d", i),
				Message:   fmt.Sprintf("Error %d", i),
				Severity:  ErrorSeverityError,
			})
			_ = collector.HasErrors()
		}()
	}
	wg.Wait()

	assert.Len(t, collector.GetErrors(), 10)
	assert.True(t, collector.HasErrors())
}

func TestLoaderErrorError(t *testing.T) {
	testCases := []struct {
		name     string
		err      *LoaderError
		expected string
	}{
		{
			name:     "code and message",
			err:      NewValidationError(ErrCodeInvalidQuery, "bad index"),
			expected: "[ERR_INVALID_QUERY] bad index",
		},
		{
			name:     "location and cause",
			err:      NewBuildError(ErrCodeTranspile, "transpile failed", fmt.Errorf("unexpected }")).WithLocation("/src/App.vue", 3, 7),
			expected: "[ERR_TRANSPILE] /src/App.vue:3:7 transpile failed: unexpected }",
		},
		{
			name:     "line without column",
			err:      NewIOError(ErrCodeFileNotFound, "missing", nil).WithLocation("/src/a.html", 2, 0),
			expected: "[ERR_FILE_NOT_FOUND] /src/a.html:2 missing",
		},
		{
			name:     "component",
			err:      ErrBuildFailed("Card", fmt.Errorf("boom")).WithComponent("Card"),
			expected: "[ERR_BUILD_FAILED] component:Card build failed for component: Card: boom",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestLoaderErrorWrapping(t *testing.T) {
	cause := fs.ErrNotExist
	err := fmt.Errorf("loading: %w", NewIOError(ErrCodeFileNotFound, "read failed", cause))

	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
	assert.True(t, stderrors.Is(err, NewIOError(ErrCodeFileNotFound, "other message", nil)))
	assert.False(t, stderrors.Is(err, NewIOError(ErrCodeInternalError, "read failed", nil)))

	var le *LoaderError
	require.True(t, stderrors.As(err, &le))
	assert.Equal(t, ErrorTypeIO, le.Type)

	assert.True(t, HasCode(err, ErrCodeFileNotFound))
	assert.False(t, HasCode(err, ErrCodeTranspile))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeFileNotFound))
}

func TestLoaderErrorWithContext(t *testing.T) {
	err := NewConfigError(ErrCodeConfigInvalid, "bad").
		WithContext("key", "build.target").
		WithContext("value", "browser")

	assert.Equal(t, map[string]interface{}{"key": "build.target", "value": "browser"}, err.Context)
	assert.Equal(t, ErrorTypeConfig, err.Type)
}

func TestIsBuildError(t *testing.T) {
	assert.True(t, IsBuildError(ErrPreprocess("pug", fmt.Errorf("x"))))
	assert.True(t, IsBuildError(fmt.Errorf("wrapped: %w", ErrBuildFailed("A", nil))))
	assert.False(t, IsBuildError(NewValidationError(ErrCodeSelectNoMatch, "m")))
	assert.False(t, IsBuildError(NewInternalError(ErrCodeInternalError, "m", nil)))
	assert.False(t, IsBuildError(nil))
}

func TestSelectErrors(t *testing.T) {
	assert.Equal(t, `[ERR_SELECT_NO_MATCH] no block matches request type "style"`, ErrSelectNoMatch("style").Error())
	assert.Equal(t, `[ERR_SELECT_NO_MATCH] no block matches request type (empty)`, ErrSelectNoMatch("").Error())
	assert.Equal(t,
		"[ERR_SELECT_INDEX_RANGE] style block index 2 out of range (descriptor has 1)",
		ErrSelectIndexRange("style", 2, 1).Error())

	pre := ErrPreprocess("pug", fmt.Errorf("unexpected indent"))
	assert.Equal(t, "[ERR_PREPROCESS] template pre-processing with pug failed: unexpected indent", pre.Error())
}

// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load recipe"},
			expected: "failed to load recipe",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load recipe", Resource: "./buildpkg.lua"},
			expected: "failed to load recipe: ./buildpkg.lua",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "run PREPARE", Cause: errors.New("configure: exit status 2")},
			expected: "failed to run PREPARE: configure: exit status 2",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "create package archive",
				Resource:  "hello-1.0-x86_64.tar.gz",
				Cause:     errors.New("tar: not found"),
			},
			expected: "failed to create package archive: hello-1.0-x86_64.tar.gz: tar: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "build", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if (&ActionableError{Operation: "build"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "simple error",
			err:      &ActionableError{Operation: "load config"},
			contains: []string{"failed to load config"},
		},
		{
			name: "suggestions are bulleted",
			err: &ActionableError{
				Operation:   "validate recipe metadata",
				Resource:    "./buildpkg.lua",
				Suggestions: []string{"Add the missing INFO fields", "Declare either version or VERSION()"},
			},
			contains: []string{
				"failed to validate recipe metadata",
				"• Add the missing INFO fields",
				"• Declare either version or VERSION()",
			},
		},
		{
			name:     "error chain only in verbose mode",
			err:      &ActionableError{Operation: "run SOURCES", Cause: errors.New("download failed")},
			verbose:  true,
			contains: []string{"Error chain:", "1. download failed"},
		},
		{
			name:     "no error chain in quiet mode",
			err:      &ActionableError{Operation: "run SOURCES", Cause: errors.New("download failed")},
			contains: []string{"failed to run SOURCES: download failed"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested chain is numbered",
			err: &ActionableError{
				Operation: "build package",
				Cause: &ActionableError{
					Operation: "load recipe",
					Cause:     errors.New("file not found"),
				},
			},
			verbose: true,
			contains: []string{
				"1. failed to load recipe: file not found",
				"2. file not found",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestActionableError_Issue(t *testing.T) {
	t.Parallel()

	if (&ActionableError{Operation: "x"}).Issue() != nil {
		t.Error("Issue() should be nil without an IssueID")
	}

	err := NewErrorContext().WithOperation("check architecture").WithIssue(ArchNotSupportedId).Build()
	got := err.Issue()
	if got == nil || got.Id() != ArchNotSupportedId {
		t.Fatalf("Issue() = %v, want catalog entry %d", got, ArchNotSupportedId)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	got := NewErrorContext().
		WithOperation("run PACKAGE").
		WithResource("/work/hello/buildpkg.lua").
		WithSuggestion("Check PACKAGE()").
		WithSuggestions("Run with --verbose", "Inspect pkg/").
		WithIssue(ScriptFailedId).
		Wrap(cause).
		Build()

	if got == nil {
		t.Fatal("Build() returned nil")
	}
	if got.Operation != "run PACKAGE" || got.Resource != "/work/hello/buildpkg.lua" {
		t.Errorf("Build() = %+v", got)
	}
	if len(got.Suggestions) != 3 {
		t.Errorf("Suggestions = %v, want 3 entries", got.Suggestions)
	}
	if got.IssueID != ScriptFailedId {
		t.Errorf("IssueID = %d, want %d", got.IssueID, ScriptFailedId)
	}
	if !errors.Is(got, cause) {
		t.Error("built error does not wrap the cause")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want untyped nil", err)
	}
	if err := NewErrorContext().WithOperation("op").BuildError(); err == nil {
		t.Error("BuildError() with operation returned nil")
	}
}

func TestWrapHelpers(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "op") != nil {
		t.Error("WrapWithOperation(nil) should be nil")
	}
	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}

	cause := errors.New("cause")
	if got := WrapWithOperation(cause, "load config"); got.Error() != "failed to load config: cause" {
		t.Errorf("WrapWithOperation() = %q", got.Error())
	}
	if got := WrapWithContext(cause, "load config", "config.cue"); got.Error() != "failed to load config: config.cue: cause" {
		t.Errorf("WrapWithContext() = %q", got.Error())
	}
	if got := NewActionableError("clean workspace"); got.Error() != "failed to clean workspace" {
		t.Errorf("NewActionableError() = %q", got.Error())
	}
}

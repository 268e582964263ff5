package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing temporal spec",
			err:         &MissingTemporalSpecError{Present: []string{TypeYear}},
			wantCode:    "COL001",
			wantMessage: "No usable date/time columns were identified",
		},
		{
			name:     "wrapped unclassified column",
			err:      fmt.Errorf("plan: %w", &UnclassifiedColumnError{Column: 3, Header: "xyz"}),
			wantCode: "COL002",
		},
		{
			name:     "unit mapping",
			err:      &UnitMappingError{Column: 2, Type: TypeSalinity, Unit: "ppt"},
			wantCode: "COL003",
		},
		{
			name:     "engine failure",
			err:      &EngineProcessingError{Err: errors.New("boom")},
			wantCode: "ENG001",
		},
		{
			name:     "unrecognized message",
			err:      &UnrecognizedMessageError{Text: "something odd"},
			wantCode: "ENG002",
		},
		{
			name:     "ambiguous message",
			err:      &AmbiguousMessageError{Text: "x", Categories: []Category{CategoryRange, CategoryGap}},
			wantCode: "ENG003",
		},
		{
			name:     "index out of range",
			err:      &IndexRangeError{Kind: "row", Index: 9, Max: 3},
			wantCode: "ENG004",
		},
		{
			name:        "not checked",
			err:         fmt.Errorf("read: %w", ErrNotChecked),
			wantCode:    "MSG001",
			wantMessage: "The dataset has never been checked",
		},
		{
			name:     "corrupt record",
			err:      &RecordCorruptError{Line: 2, Reason: "bad json"},
			wantCode: "MSG002",
		},
		{
			name:     "invalid dataset id",
			err:      fmt.Errorf("%w: %q", ErrInvalidDatasetID, "x"),
			wantCode: "DS001",
		},
		{
			name:     "structural",
			err:      &StructuralError{Reason: "ragged"},
			wantCode: "DS002",
		},
		{
			name:     "too many checks",
			err:      ErrTooManyChecks,
			wantCode: "DS003",
		},
		{
			name:     "cancelled",
			err:      errors.New("context canceled"),
			wantCode: "REQ001",
		},
		{
			name:        "timeout",
			err:         errors.New("engine timeout"),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:     "invalid request",
			err:      errors.New("invalid request: unexpected EOF"),
			wantCode: "REQ003",
		},
		{
			name:     "history",
			err:      errors.New("history not configured"),
			wantCode: "REQ004",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("CONTEXT DEADLINE EXCEEDED"),
			wantCode: "REQ002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyChecks)

	expected := "System is busy processing other checks (Code: DS003). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "typed error is user facing",
			err:  &StructuralError{Reason: "x"},
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &UnclassifiedColumnError{Column: 1, Header: "mystery"}
		userErr := NewUserError(techErr)

		if userErr.Error() != "A column has no data type" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		var target *UnclassifiedColumnError
		if !errors.As(userErr, &target) || target.Header != "mystery" {
			t.Error("Unwrap() should return original error")
		}
	})
}

func TestErrorGroups(t *testing.T) {
	classification := []error{
		&MissingTemporalSpecError{},
		&UnclassifiedColumnError{},
		&UnitMappingError{},
	}
	for _, err := range classification {
		if !IsClassificationError(err) || IsContractError(err) {
			t.Errorf("%T should be a classification error only", err)
		}
	}

	contract := []error{
		&UnrecognizedMessageError{},
		&AmbiguousMessageError{},
		&IndexRangeError{},
		&StructuralError{},
	}
	for _, err := range contract {
		if !IsContractError(fmt.Errorf("wrapped: %w", err)) || IsClassificationError(err) {
			t.Errorf("%T should be a contract error only", err)
		}
	}
}

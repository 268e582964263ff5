// Package core provides the quality-check pipeline for cruise datasets.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Typed pipeline errors are matched first (via errors.As); anything else falls
// through to case-insensitive pattern matching on the error text.
//
// # Column Classification Errors (COL001-COL099)
//
//	COL001 - Missing temporal spec: No usable date/time columns
//	         Action: Identify year/month/day/hour/minute, date and time, or timestamp columns
//	         Type: *MissingTemporalSpecError
//
//	COL002 - Unclassified column: A column has no data type
//	         Action: Assign a data type to every column, or mark it as "other"
//	         Type: *UnclassifiedColumnError
//
//	COL003 - Unit mapping: The declared unit is not accepted for the column type
//	         Action: Choose one of the listed units for this column
//	         Type: *UnitMappingError
//
// # Engine Errors (ENG001-ENG099)
//
//	ENG001 - Engine failure: The validation engine could not process the dataset
//	         Action: Review the data for unreadable values and check again
//	         Type: *EngineProcessingError
//
//	ENG002 - Unrecognized message: The engine reported a finding of unknown kind
//	         Action: Contact support; the checker configuration needs updating
//	         Type: *UnrecognizedMessageError
//
//	ENG003 - Ambiguous message: The engine reported a finding matching several kinds
//	         Action: Contact support; the checker configuration needs updating
//	         Type: *AmbiguousMessageError
//
//	ENG004 - Index out of range: A finding referenced a row or column that does not exist
//	         Action: Contact support with the dataset ID
//	         Type: *IndexRangeError
//
// # Message Record Errors (MSG001-MSG099)
//
//	MSG001 - Not checked: The dataset has never been checked
//	         Action: Run a check first
//	         Type: ErrNotChecked
//
//	MSG002 - Corrupt record: The stored messages could not be read
//	         Action: Check the dataset again to regenerate its messages
//	         Type: *RecordCorruptError
//
// # Dataset Errors (DS001-DS099)
//
//	DS001 - Invalid dataset ID: Expocodes have 12 to 15 letters, digits or dashes
//	        Action: Correct the dataset identifier
//	        Type: ErrInvalidDatasetID
//
//	DS002 - Structural mismatch: Rows and columns do not line up
//	        Action: Make every row have one value per column
//	        Type: *StructuralError
//
//	DS003 - System busy: Too many checks in progress
//	        Action: Please wait a moment and try again
//	        Type: ErrTooManyChecks
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout
//	         Patterns: "context deadline exceeded", "timeout"
//
//	REQ003 - Invalid request body
//	         Patterns: "invalid request"
//
//	REQ004 - History unavailable
//	         Patterns: "history not configured"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// typedError maps an error type or sentinel to a user message.
type typedError struct {
	match func(error) bool
	msg   UserMessage
}

func as[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func is(sentinel error) func(error) bool {
	return func(err error) bool { return errors.Is(err, sentinel) }
}

// typedErrors is checked in order before the pattern table.
var typedErrors = []typedError{
	{as[*MissingTemporalSpecError], UserMessage{
		Message: "No usable date/time columns were identified",
		Action:  "Identify year/month/day/hour/minute, date and time, or timestamp columns",
		Code:    "COL001",
	}},
	{as[*UnclassifiedColumnError], UserMessage{
		Message: "A column has no data type",
		Action:  "Assign a data type to every column, or mark it as \"other\"",
		Code:    "COL002",
	}},
	{as[*UnitMappingError], UserMessage{
		Message: "The declared unit is not accepted for this column type",
		Action:  "Choose one of the listed units for this column",
		Code:    "COL003",
	}},
	{as[*EngineProcessingError], UserMessage{
		Message: "The validation engine could not process the dataset",
		Action:  "Review the data for unreadable values and check again",
		Code:    "ENG001",
	}},
	{as[*UnrecognizedMessageError], UserMessage{
		Message: "The engine reported a finding of unknown kind",
		Action:  "Contact support; the checker configuration needs updating",
		Code:    "ENG002",
	}},
	{as[*AmbiguousMessageError], UserMessage{
		Message: "The engine reported a finding matching several kinds",
		Action:  "Contact support; the checker configuration needs updating",
		Code:    "ENG003",
	}},
	{as[*IndexRangeError], UserMessage{
		Message: "A finding referenced a row or column that does not exist",
		Action:  "Contact support with the dataset ID",
		Code:    "ENG004",
	}},
	{is(ErrNotChecked), UserMessage{
		Message: "The dataset has never been checked",
		Action:  "Run a check first",
		Code:    "MSG001",
	}},
	{as[*RecordCorruptError], UserMessage{
		Message: "The stored messages could not be read",
		Action:  "Check the dataset again to regenerate its messages",
		Code:    "MSG002",
	}},
	{is(ErrInvalidDatasetID), UserMessage{
		Message: "Invalid dataset ID",
		Action:  "Expocodes have 12 to 15 letters, digits or dashes",
		Code:    "DS001",
	}},
	{as[*StructuralError], UserMessage{
		Message: "Rows and columns do not line up",
		Action:  "Make every row have one value per column",
		Code:    "DS002",
	}},
	{is(ErrTooManyChecks), UserMessage{
		Message: "System is busy processing other checks",
		Action:  "Please wait a moment and try again",
		Code:    "DS003",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try checking a smaller dataset or try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try checking a smaller dataset or try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request body could not be read",
			Action:  "Send a JSON body with columns and rows",
			Code:    "REQ003",
		},
	},
	{
		pattern: "history not configured",
		msg: UserMessage{
			Message: "Check history is not available",
			Action:  "Configure a database to keep check history",
			Code:    "REQ004",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, te := range typedErrors {
		if te.match(err) {
			return te.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

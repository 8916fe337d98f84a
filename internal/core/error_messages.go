package core

// # Error Codes Reference
//
// User-facing messages with codes for support reference. When users quote
// a code, support staff can find the cause here.
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Missing key column: A raw dataset lacks location/date/vaccine
//	         Action: Check the upstream file headers
//	         Patterns: "schema error"
//
//	SCH002 - Duplicate key: A supplementary dataset repeats a (location, date) key
//	         Action: Enable vaccine pivoting or deduplicate the source
//	         Patterns: "duplicate join key"
//
//	SCH003 - Column collision: A suffixed column name is already taken
//	         Action: Change the merge suffix configuration
//	         Patterns: "column collision"
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Unknown country: No module is registered for the label
//	         Action: Choose one of the listed countries
//	         Patterns: "unknown country module"
//
// # Contract Errors (CON001-CON099)
//
//	CON002 - Module crashed: The country module panicked
//	         Patterns: "handler panicked"
//
//	CON001 - Invalid module output: The module broke the result contract
//	         Patterns: "contract violation"
//
// # Data Errors (DATA001-DATA099)
//
//	DATA001 - Not loaded: No dataset has been loaded yet
//	          Patterns: "dataset not loaded"
//
//	DATA002 - Unknown location: The location has no rows
//	          Patterns: "location not found"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Missing file: A raw dataset file is absent
//	FILE002 - Invalid CSV: A raw file could not be parsed
//	FILE003 - Invalid date: A key date could not be parsed
//	FILE004 - Empty file: A raw file has no header
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Cancelled: "context canceled"
//	REQ002 - Timeout: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE002)
//
//	RATE001 - Too many requests: "rate limit"
//	RATE002 - Busy: "too many concurrent dispatches"
//
// # Classification
//
// Known error types and sentinels are matched with errors.As and errors.Is
// first, so text inside an error (a country label, a file path) never
// changes its code. Errors without a known type fall back to the pattern
// table, matched case-insensitively using strings.Contains. The first
// matching pattern wins.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/JonMunkholm/covidboard/internal/country"
	"github.com/JonMunkholm/covidboard/internal/dataset"
	"github.com/JonMunkholm/covidboard/internal/merge"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Merge Schema Errors (SCH001-SCH003)
	// =========================================================================
	{
		pattern: "schema error",
		msg: UserMessage{
			Message: "A source dataset is missing a required key column",
			Action:  "Check that every file has location and date columns, and a vaccine column for manufacturer data",
			Code:    "SCH001",
		},
	},
	{
		pattern: "duplicate join key",
		msg: UserMessage{
			Message: "A source dataset has more than one row for the same location and date",
			Action:  "Enable vaccine pivoting or remove duplicate rows from the source",
			Code:    "SCH002",
		},
	},
	{
		pattern: "column collision",
		msg: UserMessage{
			Message: "Two source columns would end up with the same name",
			Action:  "Change the merge suffix configuration",
			Code:    "SCH003",
		},
	},

	// =========================================================================
	// Country Module Errors (CFG001, CON001-CON002)
	// =========================================================================
	{
		pattern: "unknown country module",
		msg: UserMessage{
			Message: "No module is registered for this country",
			Action:  "Choose one of the listed countries",
			Code:    "CFG001",
		},
	},
	{
		pattern: "handler panicked",
		msg: UserMessage{
			Message: "The country module crashed",
			Action:  "Other countries are unaffected. Report the code to the module owner",
			Code:    "CON002",
		},
	},
	{
		pattern: "contract violation",
		msg: UserMessage{
			Message: "The country module produced an invalid result",
			Action:  "Other countries are unaffected. Report the code to the module owner",
			Code:    "CON001",
		},
	},

	// =========================================================================
	// Data Availability (DATA001-DATA002)
	// =========================================================================
	{
		pattern: "dataset not loaded",
		msg: UserMessage{
			Message: "Data is still loading",
			Action:  "Please try again in a few moments",
			Code:    "DATA001",
		},
	},
	{
		pattern: "location not found",
		msg: UserMessage{
			Message: "No data for this location",
			Action:  "Choose a location from the list",
			Code:    "DATA002",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "file not found",
		msg: UserMessage{
			Message: "A source data file is missing",
			Action:  "Check the data directory and file names",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "A source file is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "A source file has an unreadable date",
			Action:  "Use YYYY-MM-DD dates in the date column",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "A source file is empty",
			Action:  "Download the dataset again",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ002)
	// =========================================================================
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
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001-RATE002)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "too many concurrent dispatches",
		msg: UserMessage{
			Message: "The server is busy computing other countries",
			Action:  "Please try again in a few seconds",
			Code:    "RATE002",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed errors are classified first; otherwise the first matching pattern
// wins. If nothing matches, a generic fallback with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if code := classify(err); code != "" {
		return messageFor(code)
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// classify returns the code for a known error type or sentinel, or "".
// A panic is reported inside a contract violation, so it is checked first.
func classify(err error) string {
	var (
		panicErr  *country.HandlerPanicError
		violation *country.ContractViolation
		cfgErr    *country.ConfigurationError
		schemaErr *merge.SchemaError
		dupErr    *merge.DuplicateKeyError
		collErr   *merge.ColumnCollisionError
		cellErr   *dataset.CellError
		csvErr    *csv.ParseError
	)

	switch {
	case errors.As(err, &panicErr):
		return "CON002"
	case errors.As(err, &violation):
		return "CON001"
	case errors.As(err, &cfgErr):
		return "CFG001"
	case errors.As(err, &schemaErr):
		return "SCH001"
	case errors.As(err, &dupErr):
		return "SCH002"
	case errors.As(err, &collErr):
		return "SCH003"
	case errors.Is(err, ErrNotLoaded):
		return "DATA001"
	case errors.Is(err, ErrLocationNotFound):
		return "DATA002"
	case errors.Is(err, ErrTooManyDispatches):
		return "RATE002"
	case errors.Is(err, fs.ErrNotExist):
		return "FILE001"
	case errors.As(err, &csvErr):
		return "FILE002"
	case errors.As(err, &cellErr):
		return "FILE003"
	case errors.Is(err, dataset.ErrEmptyFile):
		return "FILE004"
	case errors.Is(err, context.Canceled):
		return "REQ001"
	case errors.Is(err, context.DeadlineExceeded):
		return "REQ002"
	}
	return ""
}

// messageFor returns the message registered for code.
func messageFor(code string) UserMessage {
	for _, ep := range errorPatterns {
		if ep.msg.Code == code {
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

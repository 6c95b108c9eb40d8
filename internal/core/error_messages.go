// Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis. Row-level data problems are never reported this way;
// they appear as ValidationIssues in the import preview.
//
// Error codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: These records were already imported
//	        Patterns: "duplicate key", "violates unique"
//
//	DB002 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//
//	DB003 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB004 - Timeout: Operation timed out
//	        Patterns: "timeout"
//
//	DB005 - Deadlock: Database was busy with conflicting operations
//	        Patterns: "deadlock"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Unknown field: Column was mapped to a field that does not exist
//	         Patterns: "unknown field"
//
//	VAL002 - Nothing to import: The preview has no valid rows
//	         Patterns: "no valid records"
//
//	VAL003 - Unknown column: A mapping names a header the file does not have
//	         Patterns: "unknown column"
//
//	VAL004 - Field conflict: Two columns were assigned the same field
//	         Patterns: "more than one column"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	          Patterns: "file too large"
//
//	FILE002 - Unsupported format: Only .xlsx, .xlsm and .csv are accepted
//	          Patterns: "unsupported file format"
//
//	FILE003 - Unreadable: The spreadsheet could not be opened
//	          Patterns: "unreadable spreadsheet", "nil row"
//
//	FILE004 - No worksheets: The workbook contains no sheets
//	          Patterns: "no worksheets"
//
//	FILE005 - No data: The sheet has a header row but no data rows
//	          Patterns: "no data rows"
//
//	FILE006 - No file: No file was selected
//	          Patterns: "no file provided"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found: The import session expired or never existed
//	         Patterns: "import session not found"
//
//	SES002 - Invalid step: The requested action is not available at this step
//	         Patterns: "invalid session transition"
//
//	SES003 - Session failed: The import stopped and must be restarted
//	         Patterns: "import session failed"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Unknown record type
//	         Patterns: "unknown record type"
//
//	IMP002 - System busy: Too many imports are being read at once
//	         Patterns: "too many uploads"
//
//	IMP003 - Request cancelled
//	         Patterns: "context canceled"
//
//	IMP004 - Request timeout
//	         Patterns: "context deadline exceeded"
//
//	IMP005 - Import not found: No persisted import has that ID
//	         Patterns: "import not found"
//
//	IMP006 - Already rolled back
//	         Patterns: "already rolled back"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Malformed request: The request body or parameters could not be read
//	         Patterns: "malformed request"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Errors (DB001-DB005)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "These records were already imported",
			Action:  "Remove previously imported rows and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "These records were already imported",
			Action:  "Remove previously imported rows and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try importing a smaller file or try again later",
			Code:    "DB004",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL004)
	// =========================================================================
	{
		pattern: "unknown field",
		msg: UserMessage{
			Message: "That column cannot be mapped to the selected field",
			Action:  "Pick a field from the list or ignore the column",
			Code:    "VAL001",
		},
	},
	{
		pattern: "no valid records",
		msg: UserMessage{
			Message: "There are no valid rows to import",
			Action:  "Fix the highlighted rows or adjust the column mapping",
			Code:    "VAL002",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "That column is not in the uploaded file",
			Action:  "Refresh the mapping and try again",
			Code:    "VAL003",
		},
	},
	{
		pattern: "more than one column",
		msg: UserMessage{
			Message: "The same field was chosen for two columns",
			Action:  "Assign each field to one column only",
			Code:    "VAL004",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload an .xlsx, .xlsm or .csv file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unreadable spreadsheet",
		msg: UserMessage{
			Message: "The spreadsheet could not be read",
			Action:  "Open the file in Excel, save it again, and retry",
			Code:    "FILE003",
		},
	},
	{
		pattern: "nil row",
		msg: UserMessage{
			Message: "The spreadsheet could not be read",
			Action:  "Open the file in Excel, save it again, and retry",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no worksheets",
		msg: UserMessage{
			Message: "The workbook contains no sheets",
			Action:  "Add a sheet with a header row and data rows",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no data rows",
		msg: UserMessage{
			Message: "The sheet has no data rows",
			Action:  "Add at least one row below the header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to import",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Session Errors (SES001-SES003)
	// =========================================================================
	{
		pattern: "import session not found",
		msg: UserMessage{
			Message: "Import session not found",
			Action:  "The import may have expired. Please start a new import",
			Code:    "SES001",
		},
	},
	{
		pattern: "invalid session transition",
		msg: UserMessage{
			Message: "That action is not available at this step",
			Action:  "Refresh the page to see the current step",
			Code:    "SES002",
		},
	},
	{
		pattern: "import session failed",
		msg: UserMessage{
			Message: "This import stopped because of an error",
			Action:  "Start a new import",
			Code:    "SES003",
		},
	},

	// =========================================================================
	// Import Errors (IMP001-IMP006)
	// =========================================================================
	{
		pattern: "unknown record type",
		msg: UserMessage{
			Message: "Unknown import type",
			Action:  "Choose returned parts or orders",
			Code:    "IMP001",
		},
	},
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy reading other files",
			Action:  "Please wait a moment and try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try importing a smaller file or check your connection",
			Code:    "IMP004",
		},
	},
	{
		pattern: "import not found",
		msg: UserMessage{
			Message: "That import could not be found",
			Action:  "Check the import ID in the import history",
			Code:    "IMP005",
		},
	},
	{
		pattern: "already rolled back",
		msg: UserMessage{
			Message: "This import was already undone",
			Action:  "No further action is needed",
			Code:    "IMP006",
		},
	},

	// =========================================================================
	// Request Errors (REQ001)
	// =========================================================================
	{
		pattern: "malformed request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the submitted form or JSON body and try again",
			Code:    "REQ001",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
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
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("read upload: %w", sheet.ErrNoDataRows)
//	msg := MapError(err)
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
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

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
// The original error is preserved for logging.
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

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

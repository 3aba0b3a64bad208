// Package core provides the workbook import pipeline.
//
// # Error Codes Reference
//
// Operator-facing failures carry a short code that can be quoted to support.
// Codes are grouped by category:
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Row validation failed: one or more cells are missing or malformed
//	         Patterns: "row validation failed"
//	IMP002 - Reference not found: a code or key does not exist
//	         Patterns: "reference not found"
//	IMP003 - Duplicate entries: a key appears twice in the file or already exists
//	         Patterns: "duplicate entries"
//	IMP004 - Inconsistent group: rows of one group disagree on a header field
//	         Patterns: "inconsistent group fields"
//	IMP005 - Capacity exceeded: requested pallets exceed what is available
//	         Patterns: "capacity exceeded", "pool exhausted"
//	IMP006 - Import aborted: the database rejected the batch, nothing was saved
//	         Patterns: "import aborted"
//	IMP007 - Unknown import: no import registered under that key
//	         Patterns: "unknown import"
//	IMP008 - Forbidden: the caller's role may not run this import
//	         Patterns: "forbidden"
//
// # Database Errors (DB001-DB007)
//
//	DB001 duplicate key, DB002 unique constraint, DB003 foreign key,
//	DB004 connection refused, DB005 connection reset, DB006 timeout,
//	DB007 deadlock.
//
// # Validation Errors (VAL001-VAL006)
//
//	VAL001 invalid date, VAL002 invalid number, VAL003 required field,
//	VAL004 missing required column, VAL005 column not found, VAL006 invalid enum.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE004 - No file provided
//	FILE005 - Empty file
//	FILE006 - Wrong sheet or unreadable workbook ("file format error")
//
// # Request Errors
//
//	UPL002  - Too many imports in progress ("too many imports")
//	UPL004  - Request cancelled ("context canceled")
//	UPL005  - Request timed out ("context deadline exceeded")
//	AUTH001 - Missing credentials ("unauthorized")
//	AUTH002 - Invalid or expired token ("invalid token")
//	RATE001 - Rate limited ("rate limit")
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins. Import kind labels come first because an aborted import embeds
// the underlying database error in its message.
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

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Import batch failures (IMP001-IMP008)
	{
		pattern: "import aborted",
		msg: UserMessage{
			Message: "Import aborted, no rows were saved",
			Action:  "Review the listed errors and upload the file again",
			Code:    "IMP006",
		},
	},
	{
		pattern: "capacity exceeded",
		msg: UserMessage{
			Message: "Requested pallets exceed available capacity",
			Action:  "Reduce the pallets on the listed rows or split the booking",
			Code:    "IMP005",
		},
	},
	{
		pattern: "pool exhausted",
		msg: UserMessage{
			Message: "Capacity was taken by another import",
			Action:  "Upload the file again to re-check availability",
			Code:    "IMP005",
		},
	},
	{
		pattern: "row validation failed",
		msg: UserMessage{
			Message: "Some rows contain missing or invalid values",
			Action:  "Fix the listed cells and upload the file again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "reference not found",
		msg: UserMessage{
			Message: "Some rows reference records that do not exist",
			Action:  "Create the referenced records first or correct the codes",
			Code:    "IMP002",
		},
	},
	{
		pattern: "duplicate entries",
		msg: UserMessage{
			Message: "Some keys are duplicated or already exist",
			Action:  "Remove the duplicate rows listed below",
			Code:    "IMP003",
		},
	},
	{
		pattern: "inconsistent group fields",
		msg: UserMessage{
			Message: "Rows of the same group disagree on shared fields",
			Action:  "Make the listed fields identical on every row of the group",
			Code:    "IMP004",
		},
	},
	{
		pattern: "file format error",
		msg: UserMessage{
			Message: "The workbook does not contain the expected sheet",
			Action:  "Download the template and copy your data into it",
			Code:    "FILE006",
		},
	},
	{
		pattern: "unknown import",
		msg: UserMessage{
			Message: "Unknown import type",
			Action:  "Choose one of the listed import types",
			Code:    "IMP007",
		},
	},
	{
		pattern: "forbidden",
		msg: UserMessage{
			Message: "Your role is not allowed to run this import",
			Action:  "Ask an administrator for access",
			Code:    "IMP008",
		},
	},

	// Database constraint errors (DB001-DB003)
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Remove rows that were already imported",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Ensure parent records are imported first",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Ensure parent records are imported first",
			Code:    "DB003",
		},
	},

	// Database connectivity (DB004-DB007)
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Cell validation (VAL001-VAL006)
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD or a spreadsheet date cell",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use plain digits with an optional decimal point",
			Code:    "VAL002",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required columns have values",
			Code:    "VAL003",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from the sheet",
			Action:  "Check that all required columns are present",
			Code:    "VAL004",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "Expected column not found",
			Action:  "Verify column headers match the template",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid enum",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Check the allowed values for this field",
			Code:    "VAL006",
		},
	},

	// Files (FILE001-FILE005)
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller workbooks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select an .xlsx file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a workbook with data rows",
			Code:    "FILE005",
		},
	},

	// Request handling
	{
		pattern: "too many imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "invalid token",
		msg: UserMessage{
			Message: "Your session token is invalid or expired",
			Action:  "Sign in again",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "unauthorized",
		msg: UserMessage{
			Message: "Authentication required",
			Action:  "Sign in and try again",
			Code:    "AUTH001",
		},
	},
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
// The first matching pattern wins; ERR000 is the fallback.
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

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

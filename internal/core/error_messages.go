package core

// error_messages.go maps fill job failures to user-friendly messages with a
// support code. Users quote the code; support looks it up here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: an uploaded file exceeds the size limit
//	FILE002 - Unsupported format: data file is not .csv, .xlsx or .xls
//	FILE004 - No file: a required upload part is missing
//	FILE006 - Unreadable data: the CSV or spreadsheet could not be parsed
//
// # Document Errors (DOC001-DOC099)
//
//	DOC001 - Invalid template: the template is not a Word (.docx) document
//	DOC002 - Missing file: an input file disappeared before it was read
//	DOC003 - Write failed: a filled document could not be written
//
// # Request Errors (UPL001-UPL099)
//
//	UPL001 - Invalid form: the multipart form could not be read
//	UPL002 - System busy: too many fill requests in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests from this client
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the original
// technical error, correlated by request_id.
//
// Typed errors are resolved first with errors.As; everything else falls back
// to case-insensitive substring patterns where the first match wins.

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Upload a smaller data file or template",
		Code:    "FILE001",
	}
	msgUnsupportedFormat = UserMessage{
		Message: "Data file format is not supported",
		Action:  "Please use .csv, .xlsx, or .xls files",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "A required file was not provided",
		Action:  "Select both a data file and a template file",
		Code:    "FILE004",
	}
	msgUnreadableData = UserMessage{
		Message: "The data file could not be read",
		Action:  "Check that the file opens in a spreadsheet application and is saved as CSV or XLSX",
		Code:    "FILE006",
	}
	msgInvalidTemplate = UserMessage{
		Message: "The template is not a valid Word document",
		Action:  "Save the template as .docx and upload it again",
		Code:    "DOC001",
	}
	msgNotFound = UserMessage{
		Message: "An input file could not be found",
		Action:  "Please upload the files again",
		Code:    "DOC002",
	}
	msgWriteFailed = UserMessage{
		Message: "A filled document could not be written",
		Action:  "Please try again or contact support",
		Code:    "DOC003",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other requests",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that arrive untyped (library and transport errors).
// Order matters: more specific patterns come first.
var errorPatterns = []errorPattern{
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "unsupported file format", msg: msgUnsupportedFormat},
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "zip: not a valid zip file", msg: msgInvalidTemplate},
	{
		pattern: "invalid form",
		msg: UserMessage{
			Message: "The upload could not be read",
			Action:  "Submit the form again with both files attached",
			Code:    "UPL001",
		},
	},
	{pattern: "too many fill requests", msg: msgBusy},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller data file or check your connection",
			Code:    "UPL005",
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

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	err := &UnsupportedFormatError{Ext: ".txt"}
//	msg := MapError(fmt.Errorf("open data file: %w", err))
//	// msg.Code == "FILE002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTyped(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTyped(err error) (UserMessage, bool) {
	var (
		unsupported *UnsupportedFormatError
		notFound    *NotFoundError
		parseErr    *ParseError
		writeErr    *WriteError
	)
	switch {
	case errors.As(err, &unsupported):
		return msgUnsupportedFormat, true
	case errors.As(err, &notFound):
		return msgNotFound, true
	case errors.As(err, &parseErr):
		if IsDataFile(parseErr.Path) {
			return msgUnreadableData, true
		}
		return msgInvalidTemplate, true
	case errors.As(err, &writeErr):
		return msgWriteFailed, true
	case errors.Is(err, ErrTooManyRequests):
		return msgBusy, true
	case errors.Is(err, ErrMissingPart):
		return msgNoFile, true
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge, true
	}
	return UserMessage{}, false
}

// IsDataFile reports whether path has one of the SupportedDataFormats extensions.
func IsDataFile(path string) bool {
	return slices.Contains(SupportedDataFormats, strings.ToLower(filepath.Ext(path)))
}

// IsUserFacing reports whether err maps to a specific message rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

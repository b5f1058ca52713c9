package core

// errors.go defines the failure taxonomy of a fill job.
//
// Each stage returns one of the typed errors below (possibly wrapped) so the
// transport layer can pick a status code and user message with errors.As
// instead of matching on strings.

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyRequests is returned when every fill slot is busy and the wait
	// timeout expires.
	ErrTooManyRequests = errors.New("too many fill requests in progress, please try again later")

	// ErrMissingPart is returned when a multipart upload lacks one of its files.
	ErrMissingPart = errors.New("no file provided")

	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")
)

// SupportedDataFormats lists the data file extensions a fill job accepts.
var SupportedDataFormats = []string{".csv", ".xlsx", ".xls"}

// UnsupportedFormatError reports a data file whose extension has no reader.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %q. Please use .csv, .xlsx, or .xls files", e.Ext)
}

// NotFoundError reports an input file that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// ParseError reports a data file or document container that could not be read.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WriteError reports an output file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Package core holds the domain types shared by every stage of a fill job.
//
// A fill job reads rows from a data file, substitutes each row into a copy of
// a document template and packs the results into a single zip archive. The
// stages live in their own packages and all of them speak in terms of the
// types defined here:
//
//   - [Row]: one data record as an ordered column -> value mapping.
//   - Typed failures: [UnsupportedFormatError], [NotFoundError],
//     [ParseError] and [WriteError].
//   - [MapError]: translation of any failure into a [UserMessage] with a
//     support code.
//   - [RequestLimiter]: bounds how many fill jobs run at once.
//
// # Error Handling
//
// Stages never retry. A failure aborts the whole job and is returned wrapped
// with fmt.Errorf("...: %w") so callers can still reach the typed error with
// errors.As. The transport layer maps errors to user messages:
//
//   - FILE001-FILE006: upload and data file problems
//   - DOC001-DOC003: template and output document problems
//   - UPL001-UPL005: request lifecycle (cancelled, timeout, busy)
//   - RATE001: throttling
package core

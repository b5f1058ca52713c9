// Package rowsource turns a CSV or spreadsheet file into a sequence of rows.
//
// Both formats follow the same layout:
//
//	row 1   header: column names, first cell is a label and is dropped
//	row 2   annotation (verbose placeholder names): always skipped
//	row 3+  data: first cell dropped, remaining cells zipped with the header
//
// Rows are produced lazily and only once; ranging over [Source.Rows] a second
// time yields nothing.
package rowsource

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/templatefill/internal/core"
	"github.com/xuri/excelize/v2"
)

// Format identifies the reader used for a data file.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatSpreadsheet Format = "spreadsheet"
)

// lineSeq yields raw lines (all cells, label included) from a data file.
type lineSeq = iter.Seq2[[]string, error]

// Source reads rows from one data file. It holds an open file handle until
// Close is called.
type Source struct {
	path   string
	format Format

	file *os.File
	book *excelize.File

	consumed bool
}

// DetectFormat maps a file extension to a Format.
// Unknown extensions return *core.UnsupportedFormatError.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		return FormatSpreadsheet, nil
	default:
		return "", &core.UnsupportedFormatError{Ext: ext}
	}
}

// Open prepares path for reading. The format is checked before the file is
// touched, so an unsupported extension fails even when the file is missing.
func Open(path string) (*Source, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &core.NotFoundError{Path: path}
		}
		return nil, &core.ParseError{Path: path, Err: err}
	}

	s := &Source{path: path, format: format}
	switch format {
	case FormatCSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, &core.ParseError{Path: path, Err: err}
		}
		s.file = f
	case FormatSpreadsheet:
		book, err := excelize.OpenFile(path)
		if err != nil {
			return nil, &core.ParseError{Path: path, Err: fmt.Errorf("open spreadsheet: %w", err)}
		}
		s.book = book
	}

	slog.Debug("rowsource: opened data file", "path", path, "format", format)
	return s, nil
}

// Format returns the detected input format.
func (s *Source) Format() Format {
	return s.format
}

// Rows returns the data rows in file order. A read failure is yielded once as
// a non-nil error and ends the sequence.
func (s *Source) Rows() iter.Seq2[core.Row, error] {
	return func(yield func(core.Row, error) bool) {
		if s.consumed {
			return
		}
		s.consumed = true

		var lines lineSeq
		switch s.format {
		case FormatCSV:
			lines = s.csvLines()
		case FormatSpreadsheet:
			lines = s.sheetLines()
		}

		for row, err := range rowsFromLines(lines) {
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the underlying file.
func (s *Source) Close() error {
	switch {
	case s.file != nil:
		return s.file.Close()
	case s.book != nil:
		return s.book.Close()
	}
	return nil
}

// ReadAll opens path and collects every row.
func ReadAll(path string) ([]core.Row, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var rows []core.Row
	for row, err := range src.Rows() {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rowsFromLines applies the header / annotation / label-column layout.
// A header holding only the label yields an empty Row per data line.
func rowsFromLines(lines lineSeq) iter.Seq2[core.Row, error] {
	return func(yield func(core.Row, error) bool) {
		var header []string
		lineNo := 0
		for line, err := range lines {
			if err != nil {
				yield(core.Row{}, err)
				return
			}
			lineNo++

			switch lineNo {
			case 1:
				header = withoutFirstColumn(line)
			case 2:
				// annotation row
			default:
				if !yield(core.NewRow(header, withoutFirstColumn(line)), nil) {
					return
				}
			}
		}
	}
}

// withoutFirstColumn drops the label column.
func withoutFirstColumn(line []string) []string {
	if len(line) == 0 {
		return nil
	}
	return line[1:]
}

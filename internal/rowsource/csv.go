package rowsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/JonMunkholm/templatefill/internal/core"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// csvLines reads comma-separated records as raw text. A UTF-8 BOM is dropped
// and invalid UTF-8 is replaced with U+FFFD. Records may have differing field
// counts; cells are never type-converted.
//
// encoding/csv skips blank lines, but every physical line counts here: a blank
// line comes through as an empty record so the annotation row and row numbers
// stay where the file puts them.
func (s *Source) csvLines() lineSeq {
	return func(yield func([]string, error) bool) {
		counter := &lineCounter{r: transform.NewReader(s.file, unicode.BOMOverride(unicode.UTF8.NewDecoder()))}

		r := csv.NewReader(counter)
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		// blanks yields an empty record for every line before line.
		next := 1
		blanks := func(line int) bool {
			for ; next < line; next++ {
				if !yield([]string{}, nil) {
					return false
				}
			}
			return true
		}

		for {
			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				blanks(counter.lines() + 1)
				return
			}
			if err != nil {
				yield(nil, &core.ParseError{Path: s.path, Err: err})
				return
			}

			start, _ := r.FieldPos(0)
			if !blanks(start) {
				return
			}
			last := len(record) - 1
			end, _ := r.FieldPos(last)
			next = end + strings.Count(record[last], "\n") + 1

			if !yield(record, nil) {
				return
			}
		}
	}
}

// lineCounter counts the lines passing through r. A final line without a
// trailing newline still counts.
type lineCounter struct {
	r        io.Reader
	newlines int
	open     bool
}

func (c *lineCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.newlines += bytes.Count(p[:n], []byte{'\n'})
		c.open = p[n-1] != '\n'
	}
	return n, err
}

func (c *lineCounter) lines() int {
	if c.open {
		return c.newlines + 1
	}
	return c.newlines
}

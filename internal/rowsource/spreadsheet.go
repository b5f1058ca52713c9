package rowsource

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/templatefill/internal/core"
	"github.com/xuri/excelize/v2"
)

var errNoSheets = errors.New("workbook contains no worksheets")

// sheetLines streams the first worksheet. Cells carry their stored (cached)
// value rather than the displayed format, so a formula yields its last
// computed result and 123 stays "123". Booleans and date-formatted numbers
// are the exceptions, see normalizeBools and normalizeDates. Every line is
// padded to the sheet's used width (at least the header width), which makes
// trailing empty cells come through as "".
func (s *Source) sheetLines() lineSeq {
	return func(yield func([]string, error) bool) {
		sheets := s.book.GetSheetList()
		if len(sheets) == 0 {
			yield(nil, &core.ParseError{Path: s.path, Err: errNoSheets})
			return
		}
		sheet := sheets[0]
		width := usedWidth(s.book, sheet)
		dates := newDateStyles(s.book)

		rows, err := s.book.Rows(sheet)
		if err != nil {
			yield(nil, &core.ParseError{Path: s.path, Err: err})
			return
		}
		defer rows.Close()

		rowNum := 0
		for rows.Next() {
			rowNum++
			cells, err := rows.Columns(excelize.Options{RawCellValue: true})
			if err != nil {
				yield(nil, &core.ParseError{Path: s.path, Err: err})
				return
			}
			if rowNum == 1 {
				width = max(width, len(cells))
			}
			for len(cells) < width {
				cells = append(cells, "")
			}
			s.normalizeBools(sheet, rowNum, cells)
			s.normalizeDates(sheet, rowNum, cells, dates)
			if !yield(cells, nil) {
				return
			}
		}
		if err := rows.Error(); err != nil {
			yield(nil, &core.ParseError{Path: s.path, Err: err})
		}
	}
}

// normalizeBools renders boolean cells as True/False instead of the stored 1/0.
func (s *Source) normalizeBools(sheet string, rowNum int, cells []string) {
	for i, v := range cells {
		if v != "0" && v != "1" {
			continue
		}
		name, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			continue
		}
		if typ, err := s.book.GetCellType(sheet, name); err == nil && typ == excelize.CellTypeBool {
			if v == "1" {
				cells[i] = "True"
			} else {
				cells[i] = "False"
			}
		}
	}
}

// normalizeDates renders numbers in date-formatted cells as
// "2006-01-02 15:04:05", or "15:04:05" when the value is a time of day below
// one day, instead of the stored serial number.
func (s *Source) normalizeDates(sheet string, rowNum int, cells []string, dates *dateStyles) {
	for i, v := range cells {
		if v == "" {
			continue
		}
		serial, err := strconv.ParseFloat(v, 64)
		if err != nil || serial < 0 {
			continue
		}
		name, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			continue
		}
		if typ, err := s.book.GetCellType(sheet, name); err != nil ||
			(typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset) {
			continue
		}
		styleID, err := s.book.GetCellStyle(sheet, name)
		if err != nil || !dates.isDate(styleID) {
			continue
		}
		t, err := excelize.ExcelDateToTime(serial, dates.date1904)
		if err != nil {
			continue
		}
		t = t.Round(time.Second)
		if serial > 0 && serial < 1 {
			cells[i] = t.Format(time.TimeOnly)
		} else {
			cells[i] = t.Format(time.DateTime)
		}
	}
}

// dateStyles caches which cell styles carry a date or time number format.
type dateStyles struct {
	book     *excelize.File
	date1904 bool
	known    map[int]bool
}

func newDateStyles(book *excelize.File) *dateStyles {
	d := &dateStyles{book: book, known: make(map[int]bool)}
	if props, err := book.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateStyles) isDate(styleID int) bool {
	if styleID == 0 {
		return false
	}
	if v, ok := d.known[styleID]; ok {
		return v
	}
	v := false
	if style, err := d.book.GetStyle(styleID); err == nil {
		if style.CustomNumFmt != nil {
			v = isDateFormat(*style.CustomNumFmt)
		} else {
			v = isBuiltInDateFormat(style.NumFmt)
		}
	}
	d.known[styleID] = v
	return v
}

// isBuiltInDateFormat reports whether a built-in number format id shows a
// date or time, including the East Asian variants.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormat reports whether a custom number format code shows a date or
// time. Quoted literals, escaped characters and [..] sections such as colors
// are ignored.
func isDateFormat(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\' || r == '_' || r == '*':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == ';':
			// Only the positive section matters.
			return strings.ContainsAny(strings.ToLower(b.String()), "dmyhs")
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "dmyhs")
}

// usedWidth returns the column count of the sheet's recorded dimension
// ("A1:D7" -> 4), or 0 when the workbook does not record one.
func usedWidth(book *excelize.File, sheet string) int {
	dim, err := book.GetSheetDimension(sheet)
	if err != nil || dim == "" {
		return 0
	}
	ref := dim
	if i := strings.LastIndex(dim, ":"); i >= 0 {
		ref = dim[i+1:]
	}
	col, _, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return 0
	}
	return col
}

// Package filler substitutes row values into {placeholder} tokens of a Word
// template.
//
// Replacement works run by run so that each run keeps its own formatting. A
// token is only replaced when one run holds all of it; a token that Word has
// split across runs (for example "{v" + "1}") stays as literal text, and so
// does a token whose key is not in the row.
package filler

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/templatefill/internal/core"
	"github.com/JonMunkholm/templatefill/internal/docx"
)

// ErrSameFile is returned when the output path names the template itself.
var ErrSameFile = errors.New("output path must differ from template path")

// Placeholder returns the token that stands for key in a template.
func Placeholder(key string) string {
	return "{" + key + "}"
}

// Fill reads the template at templatePath, substitutes row into it and writes
// the result to outputPath, creating or overwriting that file. The template
// file is never written. Nothing is created when the template cannot be read.
func Fill(templatePath, outputPath string, row core.Row) error {
	if sameFile(templatePath, outputPath) {
		return &core.WriteError{Path: outputPath, Err: ErrSameFile}
	}

	doc, err := OpenTemplate(templatePath)
	if err != nil {
		return err
	}

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if missing := MissingKeys(doc, row); len(missing) > 0 {
			slog.Debug("filler: keys without a placeholder",
				"template", filepath.Base(templatePath),
				"keys", missing,
			)
		}
	}

	replaced := FillDocument(doc, row)

	if err := doc.Save(outputPath); err != nil {
		return &core.WriteError{Path: outputPath, Err: err}
	}

	slog.Debug("filler: document written",
		"template", filepath.Base(templatePath),
		"output", filepath.Base(outputPath),
		"keys", row.Len(),
		"replacements", replaced,
	)
	return nil
}

// OpenTemplate loads a template, mapping failures to *core.NotFoundError or
// *core.ParseError.
func OpenTemplate(path string) (*docx.Document, error) {
	doc, err := docx.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &core.NotFoundError{Path: path}
		}
		return nil, &core.ParseError{Path: path, Err: err}
	}
	return doc, nil
}

// FillDocument substitutes row into every body paragraph of doc and returns
// the number of runs it rewrote. Keys are applied in row order.
func FillDocument(doc *docx.Document, row core.Row) int {
	replaced := 0
	for _, p := range doc.Paragraphs() {
		replaced += fillParagraph(p, row)
	}
	return replaced
}

func fillParagraph(p *docx.Paragraph, row core.Row) int {
	replaced := 0
	for key, value := range row.All() {
		placeholder := Placeholder(key)
		if !strings.Contains(p.Text(), placeholder) {
			continue
		}
		for _, r := range p.Runs() {
			text := r.Text()
			if !strings.Contains(text, placeholder) {
				continue
			}
			r.SetText(strings.ReplaceAll(text, placeholder, value))
			replaced++
		}
	}
	return replaced
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// MissingKeys lists the keys of row whose placeholder never appears in the
// template text. Used for diagnostics only.
func MissingKeys(doc *docx.Document, row core.Row) []string {
	var text strings.Builder
	for _, p := range doc.Paragraphs() {
		text.WriteString(p.Text())
		text.WriteByte('\n')
	}
	full := text.String()

	var missing []string
	for key := range row.All() {
		if !strings.Contains(full, Placeholder(key)) {
			missing = append(missing, key)
		}
	}
	return missing
}

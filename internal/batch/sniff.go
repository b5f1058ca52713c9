package batch

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/JonMunkholm/templatefill/internal/core"
)

// sniffLen is how much of an upload is inspected. It matches mimetype's
// default read limit.
const sniffLen = 3072

// requireZip checks that an upload which must be an Office Open XML package
// (a template, or a spreadsheet by name) starts like a zip archive. It
// returns a reader that replays the inspected bytes. CSV uploads pass
// through unchecked.
func requireZip(name string, r io.Reader) (io.Reader, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".csv" {
		return r, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !isZip(mt) {
		return nil, &core.ParseError{
			Path: name,
			Err:  fmt.Errorf("content is %s, not an Office Open XML package", mt.String()),
		}
	}
	return io.MultiReader(bytes.NewReader(head), r), nil
}

// isZip reports whether mt is zip or a zip-based format such as docx.
func isZip(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

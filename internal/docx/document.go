// Package docx reads and writes the paragraph/run structure of Word (.docx)
// documents.
//
// A .docx file is a zip package. Only the main part (word/document.xml) is
// parsed, with etree; every other part is carried through untouched, so
// styles, numbering, headers and media survive a round trip byte for byte.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/beevik/etree"
)

// MainPart is the package path of the document body.
const MainPart = "word/document.xml"

// ErrNoMainPart is returned for zip packages without word/document.xml.
var ErrNoMainPart = errors.New("docx: package has no " + MainPart)

// ErrNoBody is returned when the main part has no w:document/w:body.
var ErrNoBody = errors.New("docx: main part has no body")

// part is one zip entry of the package.
type part struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Document is an in-memory .docx package.
type Document struct {
	parts []part
	xml   *etree.Document
	body  *etree.Element
}

// Open reads the package at path. Errors from the filesystem are returned
// unchanged so callers can test them with errors.Is(err, fs.ErrNotExist).
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Read(f, info.Size())
}

// Read parses a package from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("docx: %w", err)
	}

	doc := &Document{parts: make([]part, 0, len(zr.File))}
	for _, f := range zr.File {
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("docx: read %s: %w", f.Name, err)
		}
		doc.parts = append(doc.parts, part{
			name:     f.Name,
			method:   f.Method,
			modified: f.Modified,
			data:     data,
		})

		if f.Name == MainPart {
			x := etree.NewDocument()
			if err := x.ReadFromBytes(data); err != nil {
				return nil, fmt.Errorf("docx: parse %s: %w", MainPart, err)
			}
			doc.xml = x
		}
	}

	if doc.xml == nil {
		return nil, ErrNoMainPart
	}
	if err := doc.bindBody(); err != nil {
		return nil, err
	}
	return doc, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (d *Document) bindBody() error {
	root := d.xml.Root()
	if root == nil {
		return ErrNoBody
	}
	body := root.SelectElement("w:body")
	if body == nil {
		return ErrNoBody
	}
	d.body = body
	return nil
}

// Paragraphs returns the top-level body paragraphs in document order.
// Paragraphs inside tables, headers and footers are not included.
func (d *Document) Paragraphs() []*Paragraph {
	elems := d.body.SelectElements("w:p")
	out := make([]*Paragraph, len(elems))
	for i, e := range elems {
		out[i] = &Paragraph{el: e}
	}
	return out
}

// WriteTo serializes the package to w. Parts keep their original order; only
// the main part is re-encoded.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	main, err := d.xml.WriteToBytes()
	if err != nil {
		return 0, fmt.Errorf("docx: encode %s: %w", MainPart, err)
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, p := range d.parts {
		data := p.data
		if p.name == MainPart {
			data = main
		}
		fh := &zip.FileHeader{
			Name:     p.name,
			Method:   p.method,
			Modified: p.modified,
		}
		entry, err := zw.CreateHeader(fh)
		if err != nil {
			return cw.n, fmt.Errorf("docx: create %s: %w", p.name, err)
		}
		if _, err := entry.Write(data); err != nil {
			return cw.n, fmt.Errorf("docx: write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("docx: close package: %w", err)
	}
	return cw.n, nil
}

// Save writes the package to path, creating or truncating it. A partially
// written file is removed on failure.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

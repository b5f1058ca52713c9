package batch

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"time"
)

// archive writes filled documents into a Deflate-compressed zip.
type archive struct {
	zw    *zip.Writer
	count int
}

func newArchive(w io.Writer) *archive {
	return &archive{zw: zip.NewWriter(w)}
}

// add copies the file at path into the archive as name.
func (a *archive) add(name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	defer f.Close()

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	}
	dst, err := a.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	a.count++
	return nil
}

func (a *archive) close() error {
	if err := a.zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

// EntryName returns the archive name of the n-th document (1-based). Entries
// are always .docx, whatever the template file was called.
func EntryName(n int) string {
	return fmt.Sprintf("filled_document_%d.docx", n)
}

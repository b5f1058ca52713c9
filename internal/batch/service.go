// Package batch runs fill jobs: one filled document per data row, gathered
// into a single zip archive.
//
// Every job works inside its own Workspace, which is removed when the job
// ends whether it succeeded or not. Rows are filled one after another in file
// order; the first failing row aborts the job and no archive is delivered.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/templatefill/internal/core"
	"github.com/JonMunkholm/templatefill/internal/filler"
	"github.com/JonMunkholm/templatefill/internal/logging"
	"github.com/JonMunkholm/templatefill/internal/rowsource"
)

const (
	// DefaultDataName is used when an uploaded data file has no usable name.
	DefaultDataName = "data.xlsx"
	// DefaultTemplateName is used when an uploaded template has no usable name.
	DefaultTemplateName = "template.docx"
	// ArchiveName is the name clients should give the returned archive.
	ArchiveName = "filled_documents.zip"
)

// Config holds job settings.
type Config struct {
	// WorkspaceRoot is the parent of job workspaces; "" uses the temp dir.
	WorkspaceRoot string
	// MaxFileSize bounds each uploaded file in bytes; <= 0 disables the check.
	MaxFileSize int64
	// Timeout bounds one job; <= 0 means only the caller's context applies.
	Timeout time.Duration
}

// Upload is one file received from a client.
type Upload struct {
	Name   string
	Reader io.Reader
}

// Result describes a finished job.
type Result struct {
	JobID     string        `json:"job_id"`
	Documents int           `json:"documents"`
	Bytes     int64         `json:"bytes"`
	Duration  time.Duration `json:"duration"`
}

// Service runs fill jobs. It is safe for concurrent use; each call gets its
// own workspace.
type Service struct {
	cfg     Config
	limiter *core.RequestLimiter
	metrics *Metrics
}

// NewService creates a Service. A nil limiter leaves concurrency unbounded.
func NewService(cfg Config, limiter *core.RequestLimiter) *Service {
	return &Service{cfg: cfg, limiter: limiter, metrics: NewMetrics()}
}

// Limiter returns the limiter guarding job slots, or nil.
func (s *Service) Limiter() *core.RequestLimiter {
	return s.limiter
}

// Metrics returns job counters for health reporting.
func (s *Service) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// FillTemplates fills templatePath once per row of dataPath and writes the
// zip archive to w. Entries are named filled_document_1.docx,
// filled_document_2.docx, ... in row order, using the template's extension.
// Nothing is written to w unless every row succeeds.
func (s *Service) FillTemplates(ctx context.Context, dataPath, templatePath string, w io.Writer) (Result, error) {
	return s.withJob(ctx, func(ctx context.Context, ws *Workspace) (int, error) {
		return s.fill(ctx, ws, dataPath, templatePath, w)
	})
}

// FillUploads stores the two uploads in a job workspace and runs
// FillTemplates on them. Missing names default to data.xlsx and
// template.docx.
func (s *Service) FillUploads(ctx context.Context, data, template Upload, w io.Writer) (Result, error) {
	if data.Reader == nil || template.Reader == nil {
		return Result{}, core.ErrMissingPart
	}

	dataName := SafeName(data.Name, DefaultDataName)
	if _, err := rowsource.DetectFormat(dataName); err != nil {
		return Result{}, err
	}
	templateName := SafeName(template.Name, DefaultTemplateName)

	dataReader, err := requireZip(dataName, data.Reader)
	if err != nil {
		return Result{}, err
	}
	templateReader, err := requireZip(templateName, template.Reader)
	if err != nil {
		return Result{}, err
	}

	return s.withJob(ctx, func(ctx context.Context, ws *Workspace) (int, error) {
		dataPath, err := ws.Save(filepath.Join("in", "data", dataName), dataReader, s.cfg.MaxFileSize)
		if err != nil {
			return 0, fmt.Errorf("data file: %w", err)
		}
		templatePath, err := ws.Save(filepath.Join("in", "template", templateName), templateReader, s.cfg.MaxFileSize)
		if err != nil {
			return 0, fmt.Errorf("template file: %w", err)
		}
		return s.fill(ctx, ws, dataPath, templatePath, w)
	})
}

// withJob acquires a slot, opens a workspace and runs fn inside it.
func (s *Service) withJob(ctx context.Context, fn func(context.Context, *Workspace) (int, error)) (Result, error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return Result{}, err
		}
		defer s.limiter.Release()
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	ws, err := NewWorkspace(s.cfg.WorkspaceRoot)
	if err != nil {
		return Result{}, err
	}
	ctx = core.ContextWithJobID(ctx, ws.ID)
	logger := logging.FromContext(ctx)

	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn("workspace cleanup failed", "dir", ws.Dir, "error", err)
		}
	}()

	start := time.Now()
	logger.Info("fill job started")

	n, err := fn(ctx, ws)
	if err != nil {
		logger.Warn("fill job failed",
			"documents", n,
			"duration", time.Since(start),
			"error", err,
		)
		s.metrics.Record(Result{}, err)
		return Result{JobID: ws.ID}, err
	}

	res := Result{
		JobID:     ws.ID,
		Documents: n,
		Duration:  time.Since(start),
	}
	if info, err := os.Stat(ws.Path(ArchiveName)); err == nil {
		res.Bytes = info.Size()
	}

	s.metrics.Record(res, nil)

	logger.Info("fill job completed",
		"documents", res.Documents,
		"bytes", res.Bytes,
		"duration", res.Duration,
	)
	return res, nil
}

// fill builds the archive inside ws and copies it to w once complete.
func (s *Service) fill(ctx context.Context, ws *Workspace, dataPath, templatePath string, w io.Writer) (int, error) {
	logger := logging.WithFields(ctx,
		"data_file", filepath.Base(dataPath),
		"template", filepath.Base(templatePath),
	)

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	src, err := rowsource.Open(dataPath)
	if err != nil {
		return 0, fmt.Errorf("open data file: %w", err)
	}
	defer src.Close()

	outDir := ws.Path("out")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return 0, fmt.Errorf("prepare output dir: %w", err)
	}

	archivePath := ws.Path(ArchiveName)
	f, err := os.Create(archivePath)
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	arc := newArchive(f)
	n := 0
	for row, err := range src.Rows() {
		if err != nil {
			return n, fmt.Errorf("read data row %d: %w", n+1, err)
		}
		if err := ctx.Err(); err != nil {
			return n, fmt.Errorf("row %d: %w", n+1, err)
		}

		name := EntryName(n + 1)
		out := filepath.Join(outDir, name)
		if err := filler.Fill(templatePath, out, row); err != nil {
			return n, fmt.Errorf("row %d: %w", n+1, err)
		}
		if err := arc.add(name, out); err != nil {
			return n, err
		}
		n++
		logger.Debug("document filled", "row", n, "keys", row.Len())
	}

	if err := arc.close(); err != nil {
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close archive: %w", err)
	}

	if err := copyFile(w, archivePath); err != nil {
		return n, fmt.Errorf("deliver archive: %w", err)
	}
	return n, nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

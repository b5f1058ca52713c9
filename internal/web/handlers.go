package web

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/templatefill/internal/batch"
	"github.com/JonMunkholm/templatefill/internal/core"
	"github.com/JonMunkholm/templatefill/internal/logging"
	"github.com/JonMunkholm/templatefill/internal/web/templates"
)

const (
	fieldDataFile     = "data_file"
	fieldTemplateFile = "template_file"

	// formMemory is how much of a multipart form is kept in memory; larger
	// parts spill to temp files.
	formMemory = 8 << 20
	// formOverhead allows for multipart boundaries and headers.
	formOverhead = 1 << 20
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	*core.RequestLimiterStatus
	Jobs batch.MetricsSnapshot `json:"jobs"`
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := templates.IndexData{
		MaxFileSize: formatBytes(s.cfg.Upload.MaxFileSize),
		Formats:     strings.Join(core.SupportedDataFormats, ","),
	}
	if err := templates.Index(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleHealth reports liveness plus fill slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Jobs:   s.service.Metrics(),
	}
	if l := s.service.Limiter(); l != nil {
		status := l.Status()
		resp.RequestLimiterStatus = &status
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFill accepts data_file and template_file and answers with a zip of
// one filled document per data row. The archive is built completely before
// anything is sent, so a failure is always a clean error response.
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	maxFile := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxFile+formOverhead)

	if err := r.ParseMultipartForm(formMemory); err != nil {
		err = formError(err)
		respondError(w, r, err, statusFor(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	data, dataHeader, err := formFile(r, fieldDataFile, maxFile)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer data.Close()

	tmpl, tmplHeader, err := formFile(r, fieldTemplateFile, maxFile)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer tmpl.Close()

	logging.FromContext(r.Context()).Info("fill requested",
		"data_file", dataHeader.Filename,
		"data_size", dataHeader.Size,
		"template", tmplHeader.Filename,
		"template_size", tmplHeader.Size,
	)

	var archive bytes.Buffer
	res, err := s.service.FillUploads(r.Context(),
		batch.Upload{Name: dataHeader.Filename, Reader: data},
		batch.Upload{Name: tmplHeader.Filename, Reader: tmpl},
		&archive,
	)
	if err != nil {
		if res.JobID != "" {
			w.Header().Set("X-Job-ID", res.JobID)
		}
		respondError(w, r, err, statusFor(err))
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", "attachment; filename="+batch.ArchiveName)
	h.Set("Content-Length", strconv.Itoa(archive.Len()))
	h.Set("X-Job-ID", res.JobID)
	h.Set("X-Documents", strconv.Itoa(res.Documents))
	w.WriteHeader(http.StatusOK)
	if _, err := archive.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("archive send interrupted", "job_id", res.JobID, "error", err)
	}
}

// formFile opens one uploaded part, enforcing the per-file size limit.
func formFile(r *http.Request, field string, maxSize int64) (multipart.File, *multipart.FileHeader, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, fmt.Errorf("%s: %w", field, core.ErrMissingPart)
		}
		return nil, nil, fmt.Errorf("%s: %w: %v", field, errInvalidForm, err)
	}
	if header.Size > maxSize {
		f.Close()
		return nil, nil, fmt.Errorf("%s is %d bytes: %w", field, header.Size, core.ErrFileTooLarge)
	}
	return f, header, nil
}

// formError classifies a ParseMultipartForm failure.
func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("request body over %d bytes: %w", maxErr.Limit, core.ErrFileTooLarge)
	}
	return fmt.Errorf("%w: %v", errInvalidForm, err)
}

// formatBytes renders a size for people: 50 MB, 512 KB, 100 bytes.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + " MB"
	case n >= 1<<10 && n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}

package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/auth"
	"github.com/dcnetdisk/dcdisk/pkg/disk"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
	"github.com/dustin/go-humanize"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

// Query parameters. Path and filename values are percent-decoded by the
// disk service after the usual query decoding.
const (
	paramPath     = "path"
	paramFilename = "filename"
	paramName     = "name"
	paramOrderBy  = "orderby"
	paramOrder    = "order"
	paramLimit    = "limit"
)

// handleList handles GET /api/v1/files
func (a *HTTPAdapter) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := a.service.ListDirectory(r.Context(), auth.ExtractToken(r),
		q.Get(paramPath), q.Get(paramOrderBy), q.Get(paramOrder), q.Get(paramLimit))
	writeJSON(w, disk.StatusOf(err), disk.ListResponse(entries, err))
}

// handleUpload handles POST /api/v1/files (multipart, field "file")
func (a *HTTPAdapter) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := auth.ExtractToken(r)

	if _, err := a.service.Authenticate(ctx, token); err != nil {
		writeError(w, err)
		return
	}

	if a.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes)
	}

	part, err := filePart(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, disk.Response{
			ErrorCode:    disk.CodeTransferFailed,
			ErrorMessage: "request error: " + err.Error(),
		})
		return
	}
	defer func() { _ = part.Close() }()

	// Multipart filenames arrive unencoded; escape so the service's decoding
	// yields the name unchanged.
	filename := url.PathEscape(part.FileName())

	entry, err := a.service.UploadFile(ctx, token, r.URL.Query().Get(paramPath), filename, part)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, disk.Response{
				ErrorCode:    disk.CodeTransferFailed,
				ErrorMessage: fmt.Sprintf("upload exceeds the %s limit", humanize.IBytes(uint64(tooLarge.Limit))),
			})
			return
		}
	}
	writeJSON(w, disk.StatusOf(err), disk.UploadResponse(entry, err))
}

func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("multipart field %q is required", uploadField)
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadField && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

// handleDownload handles GET /api/v1/files/download
func (a *HTTPAdapter) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dl, err := a.service.DownloadFile(r.Context(), auth.ExtractToken(r), q.Get(paramPath), q.Get(paramFilename))
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = dl.Body.Close() }()

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	h.Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	if !dl.ModTime.IsZero() {
		h.Set("Last-Modified", dl.ModTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, dl.Body)
	if err != nil {
		logger.Warn("Download of %s aborted after %s of %s: %v",
			dl.Name, humanize.IBytes(uint64(n)), humanize.IBytes(uint64(dl.Size)), err)
	}
}

// handleMkdir handles POST /api/v1/directories
func (a *HTTPAdapter) handleMkdir(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entry, err := a.service.CreateDirectory(r.Context(), auth.ExtractToken(r), q.Get(paramPath), q.Get(paramName))
	writeJSON(w, disk.StatusOf(err), disk.EntryResponse(entry, err))
}

// handleWebList handles GET /web/files
func (a *HTTPAdapter) handleWebList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := auth.ExtractToken(r)

	entries, err := a.service.ListDirectory(r.Context(), token,
		q.Get(paramPath), q.Get(paramOrderBy), q.Get(paramOrder), q.Get(paramLimit))

	shown := metadata.RootPath
	if p, decodeErr := url.PathUnescape(q.Get(paramPath)); decodeErr == nil && p != "" {
		shown = metadata.CleanDir(p)
	}

	page := listPage{ViewModel: disk.NewViewModel(shown, entries, err), Token: token}
	if err := render(w, disk.StatusOf(err), page); err != nil {
		logger.Error("Rendering file list: %v", err)
	}
}

// handleHealth handles GET /health
func (a *HTTPAdapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Healthcheck(r.Context()); err != nil {
		logger.Warn("Healthcheck failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

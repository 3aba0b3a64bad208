package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/palletflow/internal/core"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// multipartOverhead is the slack allowed above the file size limit for
	// form boundaries and fields.
	multipartOverhead = 1 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.Limiter().Status(),
	})
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Catalogue())
}

// handleTemplate serves an empty workbook with the canonical headers of
// every sheet the import reads.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	def, ok := core.Get(key)
	if !ok {
		respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownImport, key), http.StatusNotFound)
		return
	}

	data, err := core.TemplateWorkbook(def)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeWorkbook(w, http.StatusOK, key+"-template.xlsx", data)
}

// handleImport runs one import from a multipart upload (field "file").
//
// Query parameters:
//   - dry_run=true validates and checks without committing
//   - format=xlsx returns a failed import's errors as a workbook
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	maxSize := s.cfg.Import.MaxFileSize

	// Unknown imports and callers without a matching role are turned away
	// before the upload is read.
	def, ok := core.Get(key)
	if !ok {
		respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownImport, key), http.StatusNotFound)
		return
	}
	if !def.AllowsAny(core.PrincipalFromContext(r.Context()).Roles) {
		respondError(w, r, core.ErrForbidden, http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			respondError(w, r, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	ctx := withRequestMetadata(r.Context(), r)

	res, err := s.service.Import(ctx, key, data, core.ImportOptions{
		FileName: header.Filename,
		DryRun:   dryRun,
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	status := resultStatus(res)
	if !res.Success && r.URL.Query().Get("format") == "xlsx" {
		report, err := core.ErrorWorkbook(res)
		if err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		writeWorkbook(w, status, key+"-errors.xlsx", report)
		return
	}
	writeJSON(w, status, res)
}

func writeWorkbook(w http.ResponseWriter, status int, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	w.Write(data)
}

package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"plant-maint-api/internal/sheet"
	"plant-maint-api/pkg/importer"
)

// ImportsHandler handles Excel import uploads.
type ImportsHandler struct {
	Store    sheet.Store
	Log      *zap.Logger
	MaxBytes int64
}

func NewImportsHandler(store sheet.Store, log *zap.Logger) *ImportsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImportsHandler{
		Store:    store,
		Log:      log,
		MaxBytes: 20 << 20, // 20 MB
	}
}

// UploadExcel accepts a multipart .xlsx upload and bulk-loads it through
// the reconciler into the table store. Form fields: file (required),
// dry_run, append, mapping, max_errors.
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		http.Error(w, "content-type must be multipart/form-data", http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	dryRun := r.FormValue("dry_run") == "true"
	appendRows := r.FormValue("append") == "true"
	mapping := r.FormValue("mapping")
	maxErrors := 50
	if v := r.FormValue("max_errors"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxErrors = n
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		http.Error(w, "only .xlsx files are accepted", http.StatusBadRequest)
		return
	}

	sum, impErr := importer.ImportExcel(r.Context(), h.Store, file, importer.ImportOptions{
		MappingPath: mapping,
		DryRun:      dryRun,
		Append:      appendRows,
		MaxErrors:   maxErrors,
	})
	if impErr != nil {
		h.Log.Warn("excel import failed", zap.Error(impErr))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "IMPORT_FAILED",
			"details": impErr.Error(),
			"data":    sum, // might include partial results
		})
		return
	}

	h.Log.Info("excel import",
		zap.String("file", header.Filename),
		zap.Int("imported", sum.Imported),
		zap.Int("skipped", sum.Skipped),
		zap.Int("errors", sum.Errors),
		zap.Bool("dry_run", sum.DryRun),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"data": sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package internal

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"plant-maint-api/internal/category"
	"plant-maint-api/internal/imagecodec"
	"plant-maint-api/internal/models"
)

// listMaintenance serves the history view: optional text search, category
// filter, sort, pagination.
func (s *Server) listMaintenance(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	recs, err := s.Gateway.Maintenance(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	filtered := recs[:0:0]
	for _, rec := range recs {
		if params.q != "" && !matchesQuery(rec, params.q) {
			continue
		}
		if params.category != "" && params.category != models.CategoryAll &&
			category.Extract(rec.EquipmentLabel) != params.category {
			continue
		}
		filtered = append(filtered, rec)
	}

	sortMaintenance(filtered, params.sort)
	window, total := page(filtered, params)
	sendListResponse(w, window, total, params)
}

func matchesQuery(rec models.MaintenanceRecord, q string) bool {
	return strings.Contains(rec.EquipmentLabel, q) ||
		strings.Contains(rec.WorkDescription, q) ||
		strings.Contains(rec.Notes, q)
}

// createMaintenance registers one work record. The form arrives as
// multipart when photos are attached, plain JSON otherwise.
func (s *Server) createMaintenance(w http.ResponseWriter, r *http.Request) {
	var (
		rec    models.MaintenanceRecord
		images [][]byte
		err    error
	)
	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		rec, images, err = parseMaintenanceForm(w, r)
		if err != nil {
			writeValidationError(w, "", err.Error())
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeValidationError(w, "", "invalid JSON")
			return
		}
	}

	if strings.TrimSpace(rec.EquipmentLabel) == "" {
		writeValidationError(w, "equipment_label", "設備名 is required")
		return
	}
	if strings.TrimSpace(rec.WorkDescription) == "" {
		writeValidationError(w, "work_description", "作業内容 is required")
		return
	}
	if rec.Cost < 0 {
		writeValidationError(w, "cost", "費用 must not be negative")
		return
	}
	if rec.InspectionDate.IsZero() {
		rec.InspectionDate = time.Now()
	}

	if len(images) > 0 {
		packed, err := imagecodec.Pack(images)
		if err != nil {
			writeValidationError(w, "images", err.Error())
			return
		}
		rec.Images = packed
	}

	if err := s.Gateway.InsertMaintenance(r.Context(), rec); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// parseMaintenanceForm reads the multipart registration form: text fields
// plus up to three files under "images".
func parseMaintenanceForm(w http.ResponseWriter, r *http.Request) (models.MaintenanceRecord, [][]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 20<<20)
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		return models.MaintenanceRecord{}, nil, err
	}

	rec := models.MaintenanceRecord{
		EquipmentLabel:  r.FormValue("equipment_label"),
		WorkDescription: r.FormValue("work_description"),
		Notes:           r.FormValue("notes"),
	}
	if v := r.FormValue("cost"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return rec, nil, err
		}
		rec.Cost = cost
	}
	if v := r.FormValue("inspection_date"); v != "" {
		d, err := time.Parse(models.DateLayout, v)
		if err != nil {
			return rec, nil, err
		}
		rec.InspectionDate = d
	}

	var images [][]byte
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			data, err := readUpload(fh)
			if err != nil {
				return rec, nil, err
			}
			images = append(images, data)
		}
	}
	return rec, images, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// maintenanceKey resolves the date+equipment query params used by update,
// delete and image fetch.
func maintenanceKey(r *http.Request) (models.MaintenanceKey, string) {
	dateStr := r.URL.Query().Get("date")
	equipment := r.URL.Query().Get("equipment")
	if dateStr == "" || equipment == "" {
		return models.MaintenanceKey{}, "date and equipment query parameters are required"
	}
	d, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return models.MaintenanceKey{}, "date must be YYYY-MM-DD"
	}
	return models.MaintenanceKey{InspectionDate: d, EquipmentLabel: equipment}, ""
}

func (s *Server) updateMaintenance(w http.ResponseWriter, r *http.Request) {
	key, msg := maintenanceKey(r)
	if msg != "" {
		writeValidationError(w, "key", msg)
		return
	}
	var upd models.MaintenanceUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeValidationError(w, "", "invalid JSON")
		return
	}
	if upd.EquipmentLabel != nil && strings.TrimSpace(*upd.EquipmentLabel) == "" {
		writeValidationError(w, "equipment_label", "設備名 must not be empty")
		return
	}
	if upd.Cost != nil && *upd.Cost < 0 {
		writeValidationError(w, "cost", "費用 must not be negative")
		return
	}
	if err := s.Gateway.UpdateMaintenance(r.Context(), key, upd); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteMaintenance(w http.ResponseWriter, r *http.Request) {
	key, msg := maintenanceKey(r)
	if msg != "" {
		writeValidationError(w, "key", msg)
		return
	}
	if err := s.Gateway.DeleteMaintenance(r.Context(), key); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getMaintenanceImage serves one decoded photo of a record. index selects
// within the packed cell; a block that fails to decode 404s without
// affecting its siblings.
func (s *Server) getMaintenanceImage(w http.ResponseWriter, r *http.Request) {
	key, msg := maintenanceKey(r)
	if msg != "" {
		writeValidationError(w, "key", msg)
		return
	}
	index := 0
	if v := r.URL.Query().Get("index"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			writeValidationError(w, "index", "index must be a non-negative integer")
			return
		}
		index = i
	}

	recs, err := s.Gateway.Maintenance(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, rec := range recs {
		if !rec.Matches(key) {
			continue
		}
		images := imagecodec.Unpack(rec.Images)
		if index >= len(images) {
			http.Error(w, "image not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		if _, err := w.Write(images[index]); err != nil {
			s.Log.Warn("image write failed")
		}
		return
	}
	http.Error(w, "record not found", http.StatusNotFound)
}

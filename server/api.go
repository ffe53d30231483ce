package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
)

// apiResponse is the envelope of every JSON endpoint. The web UI and the
// CLI download command branch on Status.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.Error("cannot encode response", "error", err)
	}
}

func errorResponse(err error) apiResponse {
	switch {
	case errors.Is(err, errNotFound):
		return apiResponse{Status: "Error", Message: "File not found"}
	case errors.Is(err, errLoad):
		return apiResponse{Status: "Error", Message: "File exists but cannot be loaded", Details: err.Error()}
	default:
		return apiResponse{Status: "Error", Message: "Cannot parse file", Details: err.Error()}
	}
}

var contentTypes = map[string]string{
	".json": "application/json; charset=utf-8",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain; charset=utf-8",
}

func serveAttachment(w http.ResponseWriter, r *http.Request, path string) {
	if ct, ok := contentTypes[filepath.Ext(path)]; ok {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// handleDevplans lists the ids of stored permit documents. Permit file
// names start with RU or РФ, other PDFs are not development plans.
func (s *Server) handleDevplans(w http.ResponseWriter, r *http.Request) {
	paths, _ := filepath.Glob(filepath.Join(s.cfg.Get().PDFDir, "[RР]*.pdf"))

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleDevplanStatus(w http.ResponseWriter, r *http.Request) {
	status := "not_parsed"
	if s.snapshots().Has(r.PathValue("id")) {
		status = "parsed"
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleDevplanJSON(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	report, err := s.parseDocument(id, true)
	if err != nil {
		s.writeJSON(w, http.StatusOK, errorResponse(err))
		return
	}

	s.writeJSON(w, http.StatusOK, apiResponse{
		Status:  "OK",
		Message: fmt.Sprintf("Development plan %s has been parsed successfully", id),
		Data:    report,
	})
}

func (s *Server) handleDevplanExcel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	path, err := s.parseAndSave(id, "xlsx", true)
	if err != nil {
		s.writeJSON(w, http.StatusOK, errorResponse(err))
		return
	}
	serveAttachment(w, r, path)
}

package invoice

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// maxUploadSize bounds inbound documents; invoice PDFs are tiny, so 20MB
// leaves plenty of headroom for scanned pages.
const maxUploadSize = int64(20 << 20)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type uploadResponse struct {
	Outcome
	Error string `json:"error,omitempty"`
}

// handleUploadDocument accepts a multipart PDF upload and runs the
// pipeline, mirroring what the chat intake does for a received document.
// The response carries the partial-success counts even on failure.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "error parsing form"})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "no file provided"})
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "file is too large"})
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Error: "error reading file"})
		return
	}

	sender := r.FormValue("sender")
	if sender == "" {
		sender = "web"
	}

	report, err := s.service.ProcessDocument(r.Context(), sender, header.Filename, data)
	if err != nil {
		slog.Error("Error processing document", "filename", header.Filename, "error", err)
		status := http.StatusBadRequest
		if report.Added > 0 {
			// Some rows were committed before the failure.
			status = http.StatusBadGateway
		}
		writeJSON(w, status, uploadResponse{Outcome: report, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{Outcome: report})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

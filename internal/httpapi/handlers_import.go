package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kopilka/internal/core"
)

// maxImportBytes bounds the uploaded CSV size.
const maxImportBytes = 32 << 20

func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, r, fmt.Errorf("parse upload: %w", core.ErrBadData))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("missing file field: %w", core.ErrBadData))
		return
	}
	defer file.Close()

	jobID, err := s.svc.Imports.StartImport(r.Context(), userID, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID.String()})
}

func (s *Server) handleGetImportJob(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	job, err := s.svc.Imports.Job(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toImportJobResponse(job))
}

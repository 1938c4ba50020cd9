package httpapi

import "net/http"

func (s *Server) handleFaceEnroll(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected a multipart photo upload")
		return
	}

	photos, err := readPhotoSet(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.faceService.EnrollFace(r.Context(), s.actor(r), photos); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "enrolled"})
}

func (s *Server) handleFaceChangeRequest(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected a multipart photo upload")
		return
	}

	photos, err := readPhotoSet(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rec, err := s.faceService.RequestChange(r.Context(), s.actor(r), photos)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, viewFromChange(rec))
}

func (s *Server) handleFaceChangeQueue(w http.ResponseWriter, r *http.Request) {
	recs, err := s.faceService.PendingChanges(r.Context(), s.actor(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsFromChanges(recs))
}

func (s *Server) handleFaceChangeApprove(w http.ResponseWriter, r *http.Request) {
	rec, err := s.faceService.ApproveChange(r.Context(), s.actor(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFromChange(rec))
}

func (s *Server) handleFaceChangeDeny(w http.ResponseWriter, r *http.Request) {
	rec, err := s.faceService.DenyChange(r.Context(), s.actor(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFromChange(rec))
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/cardea-project/cardea/internal/cardea/types"
)

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req types.CreateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := s.accessService.CreateRequest(r.Context(), s.actor(r), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, viewFromRecord(rec))
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	switch view := r.URL.Query().Get("view"); view {
	case "", "mine":
		recs, err := s.accessService.History(r.Context(), s.actor(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewsFromRecords(recs))
	case "pending":
		recs, err := s.accessService.PendingQueue(r.Context(), s.actor(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewsFromRecords(recs))
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "view must be \"mine\" or \"pending\"")
	}
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.accessService.GetRequest(r.Context(), s.actor(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFromRecord(rec))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.handleDecision(w, r, types.DecisionApprove)
}

func (s *Server) handleDeny(w http.ResponseWriter, r *http.Request) {
	s.handleDecision(w, r, types.DecisionDeny)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request, decision types.Decision) {
	rec, err := s.accessService.Decide(r.Context(), s.actor(r), r.PathValue("id"), decision)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFromRecord(rec))
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected a multipart photo upload")
		return
	}

	photo, err := readPhotoField(r, "photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rec, err := s.accessService.CheckIn(r.Context(), s.actor(r), r.PathValue("id"), photo)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFromRecord(rec))
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	var req types.CheckOutRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := s.accessService.CheckOut(r.Context(), s.actor(r), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFromRecord(rec))
}

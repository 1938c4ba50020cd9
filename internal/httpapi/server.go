package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/service"
)

// actorHeader carries the authenticated user id, supplied by the
// presentation layer in front of this API. Cardea treats it as
// authenticated input and re-checks authorization per operation.
const actorHeader = "X-Actor-ID"

type Dependencies struct {
	Logger        *log.Logger
	Addr          string
	AccessService *service.AccessService
	FaceService   *service.FaceService
}

type Server struct {
	httpServer    *http.Server
	logger        *log.Logger
	mux           *http.ServeMux
	accessService *service.AccessService
	faceService   *service.FaceService
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:        d.Logger,
		mux:           mux,
		accessService: d.AccessService,
		faceService:   d.FaceService,
	}

	mux.HandleFunc("POST /v1/requests", s.handleCreateRequest)
	mux.HandleFunc("GET /v1/requests", s.handleListRequests)
	mux.HandleFunc("GET /v1/requests/{id}", s.handleGetRequest)
	mux.HandleFunc("POST /v1/requests/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /v1/requests/{id}/deny", s.handleDeny)
	mux.HandleFunc("POST /v1/requests/{id}/check_in", s.handleCheckIn)
	mux.HandleFunc("POST /v1/requests/{id}/check_out", s.handleCheckOut)

	mux.HandleFunc("POST /v1/face/enroll", s.handleFaceEnroll)
	mux.HandleFunc("POST /v1/face/changes", s.handleFaceChangeRequest)
	mux.HandleFunc("GET /v1/face/changes", s.handleFaceChangeQueue)
	mux.HandleFunc("POST /v1/face/changes/{id}/approve", s.handleFaceChangeApprove)
	mux.HandleFunc("POST /v1/face/changes/{id}/deny", s.handleFaceChangeDeny)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) actor(r *http.Request) string {
	return r.Header.Get(actorHeader)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

// writeServiceError maps the service taxonomy onto HTTP. Every kind keeps
// its own message: a biometric mismatch must never surface as a generic
// error, the user needs to know whether to retake the photo or call an
// approver.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrAuthorization):
		writeError(w, http.StatusForbidden, "not_permitted", err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, service.ErrVerificationFailed):
		writeError(w, http.StatusUnprocessableEntity, "verification_failed", err.Error())
	case errors.Is(err, service.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
	default:
		s.logger.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

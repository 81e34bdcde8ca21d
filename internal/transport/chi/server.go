package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/domain"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	healthuc "github.com/kailas-cloud/coursedex/internal/usecase/health"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the course search HTTP API.
type Server struct {
	search        Searcher
	indexer       Indexer
	catalog       Catalog
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, indexer Indexer, catalog Catalog, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search:  search,
		indexer: indexer,
		catalog: catalog,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		invalidCriteriaHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrReindexInProgress, http.StatusConflict, codeReindexInProgress),
		sentinelHandler(domain.ErrMapping, http.StatusUnprocessableEntity, codeMappingFailed),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable, codeSearchUnavailable),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
	}
	return s
}

// Routes registers the API on r. Index maintenance routes require a bearer
// API key when apiKeys is non-empty.
func (s *Server) Routes(r gochi.Router, apiKeys []string) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/course", func(r gochi.Router) {
		r.Post("/search", s.SearchCourses)

		r.Group(func(r gochi.Router) {
			r.Use(BearerAuthMiddleware(apiKeys))
			r.Post("/index-to-es", s.ReindexCourses)
			r.Get("/index-to-es", s.ReindexCourses)
			r.Post("/{id}/index", s.IndexCourse)
		})

		r.Get("/course-get", s.ListCourses)
		r.Get("/{id}", s.GetCourse)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})
}

// SearchCourses handles POST /api/course/search.
func (s *Server) SearchCourses(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	switch {
	case err == nil, errors.Is(err, io.EOF):
	case errors.Is(err, domain.ErrInvalidCriteria):
		writeError(w, http.StatusBadRequest, codeInvalidCriteria, err.Error())
		return
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	c, err := req.criteria()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.search.Search(r.Context(), c, req.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	data := res.Documents
	if data == nil {
		data = []domdoc.Document{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		FromCache: res.FromCache,
		Degraded:  res.Degraded,
		Data:      data,
	})
}

// ReindexCourses handles POST and GET /api/course/index-to-es.
func (s *Server) ReindexCourses(w http.ResponseWriter, r *http.Request) {
	report, err := s.indexer.ReindexAll(r.Context())
	if errors.Is(err, domain.ErrIndexUnavailable) {
		s.logger.Warn("Reindex aborted", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, reportToResponse("Reindex aborted: index unavailable", &report))
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	msg := fmt.Sprintf("Indexed %d of %d courses", report.Indexed, report.Processed)
	writeJSON(w, http.StatusOK, reportToResponse(msg, &report))
}

// IndexCourse handles POST /api/course/{id}/index.
func (s *Server) IndexCourse(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "course id is required")
		return
	}

	report, err := s.indexer.UpsertOne(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportToResponse("Indexed course "+id, &report))
}

// ListCourses handles GET /api/course/course-get.
func (s *Server) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.catalog.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courseListResponse{Success: true, Data: courses})
}

// GetCourse handles GET /api/course/{id}.
func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request) {
	c, err := s.catalog.Get(r.Context(), gochi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Course not found")
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courseResponse{Success: true, Data: c})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrReindexInProgress,
		domain.ErrMapping,
		domain.ErrSearchUnavailable,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidCriteriaHandler echoes validation detail, which never carries internals.
func invalidCriteriaHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidCriteria) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeInvalidCriteria, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

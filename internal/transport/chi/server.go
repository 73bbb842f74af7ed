// Package chi exposes the document store over a JSON HTTP API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cwlacewe/vdms-go/internal/domain"
	documentuc "github.com/cwlacewe/vdms-go/internal/usecase/document"
	healthuc "github.com/cwlacewe/vdms-go/internal/usecase/health"
	searchuc "github.com/cwlacewe/vdms-go/internal/usecase/search"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest       = "bad_request"
	codeValidation       = "validation_failed"
	codeDocumentNotFound = "document_not_found"
	codeEmbeddingError   = "embedding_provider_error"
	codeUpstreamError    = "upstream_error"
	codeUnavailable      = "service_unavailable"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes HTTP requests to the document and search services.
type Server struct {
	documents *documentuc.Service
	search    *searchuc.Service
	health    *healthuc.Service
	logger    *zap.Logger

	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	documents *documentuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents: documents,
		search:    search,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidation),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingError),
		sentinelHandler(domain.ErrCollectionFailed, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrServerError, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrConnClosed, http.StatusServiceUnavailable, codeUnavailable),
	}
	return s
}

// Routes registers every endpoint on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.addDocuments)
		r.Put("/documents", s.updateDocuments)
		r.Post("/documents/query", s.queryDocuments)
		r.Post("/documents/delete", s.deleteDocuments)
		r.Get("/documents/count", s.countDocuments)
		r.Get("/documents/{id}", s.getDocument)
		r.Post("/search", s.searchDocuments)
	})
}

// addDocuments handles POST /api/v1/documents.
func (s *Server) addDocuments(w http.ResponseWriter, r *http.Request) {
	var req documentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "documents must not be empty")
		return
	}

	docs := make([]domain.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = d.toDomain()
	}

	ids, err := s.documents.Add(r.Context(), docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, idsResponse{IDs: ids})
}

// updateDocuments handles PUT /api/v1/documents. Every document id must
// already exist.
func (s *Server) updateDocuments(w http.ResponseWriter, r *http.Request) {
	var req documentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "documents must not be empty")
		return
	}

	docs := make([]domain.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = d.toDomain()
	}

	if err := s.documents.Update(r.Context(), docs); err != nil {
		s.handleDomainError(w, err)
		return
	}

	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}
	writeJSON(w, http.StatusOK, idsResponse{IDs: ids})
}

// getDocument handles GET /api/v1/documents/{id}.
func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	docs, err := s.documents.GetByIDs(r.Context(), []string{id}, false)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if len(docs) == 0 {
		writeError(w, http.StatusNotFound, codeDocumentNotFound, domain.ErrDocumentNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, documentToPayload(docs[0], false))
}

// queryDocuments handles POST /api/v1/documents/query. The body carries
// ids or a metadata filter; with neither the whole collection matches.
func (s *Server) queryDocuments(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var docs []domain.Document
	var err error
	if len(req.IDs) > 0 {
		docs, err = s.documents.GetByIDs(r.Context(), req.IDs, req.IncludeVectors)
	} else {
		var filter domain.Constraints
		filter, err = req.Filter.toDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}
		docs, err = s.documents.GetByConstraints(r.Context(), filter, req.Limit, req.IncludeVectors)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]documentPayload, len(docs))
	for i, d := range docs {
		items[i] = documentToPayload(d, req.IncludeVectors)
	}
	writeJSON(w, http.StatusOK, documentsResponse{Items: items, Total: len(items)})
}

// deleteDocuments handles POST /api/v1/documents/delete.
func (s *Server) deleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	filter, err := req.Filter.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	matched, err := s.documents.Delete(r.Context(), req.IDs, filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{Matched: matched})
}

// countDocuments handles GET /api/v1/documents/count.
func (s *Server) countDocuments(w http.ResponseWriter, r *http.Request) {
	n, err := s.documents.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// searchDocuments handles POST /api/v1/search.
func (s *Server) searchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" && len(req.Vector) == 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "either query or vector is required")
		return
	}

	filter, err := req.Filter.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	scored, err := s.runSearch(r, req, filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if req.Relevance {
		scored = s.search.RelevanceScores(scored)
	}

	items := make([]searchResultItem, len(scored))
	for i, sd := range scored {
		items[i] = searchResultItem{
			documentPayload: documentToPayload(sd.Document, req.IncludeVectors),
			Score:           sd.Score,
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

func (s *Server) runSearch(
	r *http.Request, req searchRequest, filter domain.Constraints,
) ([]domain.ScoredDocument, error) {
	ctx := r.Context()

	if req.MMR {
		// Omitted lambda keeps the default; an explicit 0 is pure
		// diversity.
		lambda := searchuc.DefaultLambda
		if req.Lambda != nil {
			lambda = *req.Lambda
		}
		opts := searchuc.MMROptions{
			K:              req.K,
			FetchK:         req.FetchK,
			Lambda:         lambda,
			Constraints:    filter,
			IncludeVectors: req.IncludeVectors,
		}
		if len(req.Vector) > 0 {
			return s.search.SearchMMRByVector(ctx, req.Vector, opts)
		}
		return s.search.SearchMMR(ctx, req.Query, opts)
	}

	opts := searchuc.Options{
		K:              req.K,
		FetchK:         req.FetchK,
		Constraints:    filter,
		IncludeVectors: req.IncludeVectors,
	}
	if len(req.Vector) > 0 {
		return s.search.SearchByVector(ctx, req.Vector, opts)
	}
	return s.search.Search(ctx, req.Query, opts)
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
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

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrDocumentNotFound,
		domain.ErrCollectionFailed,
		domain.ErrEmbeddingProviderError,
		domain.ErrConnClosed,
		domain.ErrServerError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

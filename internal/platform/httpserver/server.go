// Package httpserver mounts the promotion engine's three HTTP
// endpoints (spec.md §6) on a stdlib net/http.ServeMux, following the
// teacher's method-pattern routing and decode/writeJSON/domain-error
// mapping conventions.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	promotionengine "promoengine/contexts/promotion-engine"
	compilerdomain "promoengine/contexts/promotion-engine/authoring-compiler/domain"
	compilerhttp "promoengine/contexts/promotion-engine/authoring-compiler/transport/http"
	storeerrors "promoengine/contexts/promotion-engine/promotion-store/domain/errors"
	publisherdomain "promoengine/contexts/promotion-engine/publisher/domain"
	publisherhttp "promoengine/contexts/promotion-engine/publisher/transport/http"
	evaluatordomain "promoengine/contexts/promotion-engine/runtime-evaluator/domain"
	evaluatorhttp "promoengine/contexts/promotion-engine/runtime-evaluator/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "promoengine/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	httpServer *http.Server
	module     promotionengine.Module
}

func New(module promotionengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		module: module,
	}
	s.registerRoutes()
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if s.httpServer == nil {
		s.httpServer = &http.Server{
			Addr:    s.addr,
			Handler: s.mux,
		}
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	s.mux.HandleFunc("POST /api/authoring/promotions/draft", s.handleDraftUpsert)
	s.mux.HandleFunc("POST /api/authoring/promotions/{promotionId}/{countryIso}/publish", s.handlePublish)
	s.mux.HandleFunc("POST /api/runtime/evaluate", s.handleEvaluate)
}

func (s *Server) handleDraftUpsert(w http.ResponseWriter, r *http.Request) {
	var req compilerhttp.DraftRequest
	if !s.decodeJSON(w, r, &req, writeCompilerError) {
		return
	}
	resp, err := s.module.AuthoringHandler.DraftUpsertHandler(r.Context(), req)
	if err != nil {
		writeCompilerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	promotionID := r.PathValue("promotionId")
	countryISO := r.PathValue("countryIso")
	resp, err := s.module.PublisherHandler.PublishHandler(r.Context(), promotionID, countryISO)
	if err != nil {
		writePublisherDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluatorhttp.EvaluateRequest
	if !s.decodeJSON(w, r, &req, writeEvaluatorError) {
		return
	}
	resp, err := s.module.EvaluateHandler.EvaluateHandler(r.Context(), req)
	if err != nil {
		writeEvaluatorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, onError func(http.ResponseWriter, int, string, string)) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		onError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeCompilerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, compilerhttp.ErrorResponse{Code: code, Message: message})
}

func writePublisherError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, publisherhttp.ErrorResponse{Code: code, Message: message})
}

func writeEvaluatorError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, evaluatorhttp.ErrorResponse{Code: code, Message: message})
}

func writeCompilerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, compilerdomain.ErrInvalidDraftInput):
		writeCompilerError(w, http.StatusBadRequest, "invalid_draft_input", err.Error())
	case errors.Is(err, compilerdomain.ErrCompileProducedZeroRules):
		writeCompilerError(w, http.StatusBadRequest, "compile_produced_zero_rules", err.Error())
	case errors.Is(err, compilerdomain.ErrVersionConflict), errors.Is(err, storeerrors.ErrVersionConflict):
		writeCompilerError(w, http.StatusConflict, "version_conflict", err.Error())
	case errors.Is(err, storeerrors.ErrVersionAlreadyPublished):
		writeCompilerError(w, http.StatusConflict, "version_already_published", err.Error())
	default:
		writeCompilerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePublisherDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, publisherdomain.ErrNoVersionToPublish), errors.Is(err, storeerrors.ErrVersionNotFound):
		writePublisherError(w, http.StatusNotFound, "no_version_to_publish", err.Error())
	default:
		writePublisherError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEvaluatorDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, evaluatordomain.ErrInvalidEvaluationRequest):
		writeEvaluatorError(w, http.StatusBadRequest, "invalid_evaluation_request", err.Error())
	default:
		writeEvaluatorError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

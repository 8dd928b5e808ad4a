package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"basket-rules/internal/errors"
	"basket-rules/internal/models"
	"basket-rules/internal/observability"
)

// RulesService is the pipeline the HTTP layer drives.
type RulesService interface {
	Generate(ctx context.Context, req models.RulesRequest) (*models.RulesResult, error)
	Stats() map[string]any
}

type APIHandlers struct {
	rules  RulesService
	logger *slog.Logger
}

func NewAPIHandlers(rules RulesService, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		rules:  rules,
		logger: logger,
	}
}

func (h *APIHandlers) HandleGenerateRules(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	req, err := decodeRulesRequest(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	result, err := h.rules.Generate(r.Context(), req)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, result, map[string]string{
		"Cache-Control": "no-store",
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.rules.Stats()

	errors.WriteSuccess(w, stats)
}

func decodeRulesRequest(r *http.Request) (models.RulesRequest, error) {
	var req models.RulesRequest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return req, errors.PayloadTooLarge("request body too large")
		}
		return req, errors.InputWrap(err, "failed to read request body")
	}

	if len(body) == 0 {
		return req, errors.Input("request body is required")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errors.InputWrap(err, "invalid JSON request body")
	}
	return req, nil
}

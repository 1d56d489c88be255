package engine

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/berkebzlk/API-SOLUTION/internal/core/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// APIConfig configures the generic REST API.
type APIConfig struct {
	Store  *Store
	Logger *slog.Logger
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the error payload for all failed requests. Fields is
// only present for validation failures and maps field names to messages.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// Routes builds a router with generic CRUD routes for every resource in
// the store's schema: /api/v1/{resource} and /api/v1/{resource}/{id}.
func Routes(cfg APIConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(jsonContentType)

	r.Get("/health", handleHealth)

	for _, ordered := range cfg.Store.Resources() {
		res := cfg.Store.Resource(ordered.Name)
		r.Route("/api/v1/"+res.Name, func(r chi.Router) {
			r.Get("/", listHandler(cfg, res))
			r.Post("/", createHandler(cfg, res))
			r.Get("/{id}", getHandler(cfg, res))
			r.Patch("/{id}", updateHandler(cfg, res))
			r.Delete("/{id}", deleteHandler(cfg, res))
		})
		cfg.Logger.Debug("registered routes", "resource", res.Name)
	}

	return r
}

// jsonContentType sets Content-Type header to application/json.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// =============================================================================
// Generic Handlers
// =============================================================================

func listHandler(cfg APIConfig, res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := parsePage(r)

		// Parse filter query params: filter[field]=value
		var filters []Filter
		for key, values := range r.URL.Query() {
			if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
				fieldName := key[7 : len(key)-1]
				if res.FieldByName(fieldName) != nil && len(values) > 0 {
					filters = append(filters, Filter{Field: fieldName, Value: values[0]})
				}
			}
		}

		rows, err := cfg.Store.List(r.Context(), res.Name, filters, page)
		if err != nil {
			cfg.Logger.Error("list failed", "resource", res.Name, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list "+res.Name, "internal_error")
			return
		}

		if rows == nil {
			rows = []map[string]any{}
		}
		for _, row := range rows {
			stripRow(row)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"data": rows,
			"meta": map[string]any{
				"total":  len(rows),
				"limit":  page.Limit,
				"offset": page.Offset,
			},
		})
	}
}

func createHandler(cfg APIConfig, res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := parseBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body", "bad_request")
			return
		}

		row, err := cfg.Store.Create(r.Context(), res.Name, data)
		if err != nil {
			writeStoreError(cfg, w, res, "create", err)
			return
		}

		stripRow(row)
		writeJSON(w, http.StatusCreated, map[string]any{"data": row})
	}
}

func getHandler(cfg APIConfig, res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		row, err := cfg.Store.Get(r.Context(), res.Name, id)
		if err != nil {
			writeStoreError(cfg, w, res, "get", err)
			return
		}

		stripRow(row)
		writeJSON(w, http.StatusOK, map[string]any{"data": row})
	}
}

func updateHandler(cfg APIConfig, res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		patch, err := parseBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body", "bad_request")
			return
		}

		row, err := cfg.Store.Update(r.Context(), res.Name, id, patch)
		if err != nil {
			writeStoreError(cfg, w, res, "update", err)
			return
		}

		stripRow(row)
		writeJSON(w, http.StatusOK, map[string]any{"data": row})
	}
}

func deleteHandler(cfg APIConfig, res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := cfg.Store.Delete(r.Context(), res.Name, id); err != nil {
			writeStoreError(cfg, w, res, "delete", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// =============================================================================
// Request / Response helpers
// =============================================================================

// parseBody decodes a flat JSON object body into a record map.
func parseBody(r *http.Request) (map[string]any, error) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}

// parsePage extracts pagination from query parameters.
func parsePage(r *http.Request) Page {
	p := DefaultPage()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Offset = n
		}
	}
	return p.Normalize()
}

// stripRow removes columns that are not part of the public representation.
func stripRow(row map[string]any) {
	// Don't expose the internal integer PK; clients address rows by
	// reference_id.
	delete(row, "id")
}

// writeStoreError maps a store error onto an HTTP response. Validation
// failures carry their field map; a broken rule table is a server-side
// bug and maps to 500, never 400.
func writeStoreError(cfg APIConfig, w http.ResponseWriter, res *Resource, op string, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Code:   "validation_error",
			Fields: vErr.Fields.Messages(),
		})
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, res.Name+" not found", "not_found")
	case errors.Is(err, validation.ErrUnknownRule),
		errors.Is(err, validation.ErrMissingDefault),
		errors.Is(err, validation.ErrBadParam):
		cfg.Logger.Error("rule table misconfigured", "resource", res.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "invalid validation rule table", "rule_table_error")
	default:
		cfg.Logger.Error(op+" failed", "resource", res.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op+" "+res.Name, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

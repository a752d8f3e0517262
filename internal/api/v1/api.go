// Package v1 implements the native REST API.
package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Config holds API server configuration.
type Config struct {
	// Version is reported by the health endpoint.
	Version string
}

// Server is the v1 API server.
type Server struct {
	deps    ServerDeps
	cfg     Config
	started time.Time
}

// New creates a v1 API server from validated dependencies.
func New(deps ServerDeps, cfg Config) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Server{deps: deps, cfg: cfg, started: time.Now().UTC()}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Manager webhooks
	mux.HandleFunc("POST /webhook/radarr", s.radarrWebhook)
	mux.HandleFunc("POST /webhook/sonarr", s.sonarrWebhook)
	mux.HandleFunc("POST /webhook/removal", s.removalWebhook)

	// Movies
	mux.HandleFunc("GET /api/v1/movies", s.listMovies)
	mux.HandleFunc("GET /api/v1/movies/{id}", s.getMovie)
	mux.HandleFunc("DELETE /api/v1/movies/{id}", s.deleteMovie)
	mux.HandleFunc("PUT /api/v1/movies/{id}/date", s.setMovieDate)

	// Series & episodes
	mux.HandleFunc("GET /api/v1/series", s.listSeries)
	mux.HandleFunc("GET /api/v1/series/{id}", s.getSeries)
	mux.HandleFunc("GET /api/v1/series/{id}/episodes", s.listEpisodes)
	mux.HandleFunc("DELETE /api/v1/series/{id}", s.deleteSeries)
	mux.HandleFunc("PUT /api/v1/episodes/{series}/{season}/{episode}/date", s.setEpisodeDate)

	// Stats & history
	mux.HandleFunc("GET /api/v1/stats", s.getStats)
	mux.HandleFunc("GET /api/v1/history", s.listHistory)

	// Jobs
	mux.HandleFunc("GET /api/v1/jobs", s.listJobs)
	mux.HandleFunc("POST /api/v1/jobs", s.createJob)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.getJob)
	mux.HandleFunc("PUT /api/v1/jobs/{id}", s.updateJob)
	mux.HandleFunc("DELETE /api/v1/jobs/{id}", s.deleteJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/run", s.requireDispatch(s.runJob))
	mux.HandleFunc("POST /api/v1/jobs/{id}/enable", s.enableJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/disable", s.disableJob)

	// Executions
	mux.HandleFunc("GET /api/v1/executions", s.listExecutions)
	mux.HandleFunc("GET /api/v1/executions/{id}", s.getExecution)

	// Maintenance triggers
	mux.HandleFunc("POST /api/v1/populate", s.requireDispatch(s.triggerPopulate))
	mux.HandleFunc("POST /api/v1/cleanup", s.triggerCleanup)

	// System
	mux.HandleFunc("GET /healthz", s.healthz)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// pathInt extracts an integer path parameter.
func pathInt(r *http.Request, name string) (int, error) {
	v := r.PathValue(name)
	if v == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.Atoi(v)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// queryString extracts an optional string from query string.
func queryString(r *http.Request, name string) *string {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil
	}
	return &val
}

// queryBool extracts an optional boolean from query string.
func queryBool(r *http.Request, name string) *bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &b
}

const maxLimit = 1000

// pageParams reads limit/offset from the query string, clamping limit
// to maxLimit.
func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = queryInt(r, "limit", defaultLimit)
	if limit < 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parseDate accepts RFC 3339 or a bare YYYY-MM-DD day.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "healthy",
		Version:  s.cfg.Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Database: "healthy",
	}
	if err := s.deps.DB.PingContext(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

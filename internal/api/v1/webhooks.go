package v1

import (
	"context"
	"io"
	"net/http"

	"github.com/vmunix/datarr/internal/ingest"
)

// Webhook bodies are small; a megabyte is generous.
const maxWebhookBytes = 1 << 20

func (s *Server) radarrWebhook(w http.ResponseWriter, r *http.Request) {
	s.handleWebhook(w, r, s.deps.Ingest.RadarrImport)
}

func (s *Server) sonarrWebhook(w http.ResponseWriter, r *http.Request) {
	s.handleWebhook(w, r, s.deps.Ingest.SonarrImport)
}

func (s *Server) removalWebhook(w http.ResponseWriter, r *http.Request) {
	s.handleWebhook(w, r, s.deps.Ingest.Removal)
}

// handleWebhook runs one ingest entry point. A payload the ingestor
// rejects still answers 200 with a status of "ignored" or "error", so
// the sending manager never retries it; only a storage failure is a 500.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request, apply func(context.Context, []byte) (*ingest.Result, error)) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	res, err := apply(r.Context(), payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/loanlab/underwriter/pkg/underwriting"
)

// OrchestratorRequest is the POST /orchestrator payload. Both fields
// are optional; the sample application and a default prompt fill the
// gaps so the demo works with an empty body.
type OrchestratorRequest struct {
	Message string                        `json:"message"`
	AppData *underwriting.ApplicationData `json:"app_data"`
}

const defaultMessage = "Please process this loan application."

func (s *Server) handleSampleApplication(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, underwriting.SampleApplication())
}

// handleOrchestrator runs the full underwriting pipeline. The response
// is 200 whenever the pipeline ran, even degraded; failures inside the
// run surface in the errors field, not the status code.
func (s *Server) handleOrchestrator(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req OrchestratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if req.Message == "" {
		req.Message = defaultMessage
	}
	app := underwriting.SampleApplication()
	if req.AppData != nil {
		app = *req.AppData
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.options.RequestTimeout)
	defer cancel()

	s.logger.Info().
		Str("request_id", RequestID(ctx)).
		Str("product", app.Product).
		Msg("Underwriting run started")

	result := s.orchestrator.Run(ctx, req.Message, app)

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

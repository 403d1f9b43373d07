package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/wikiroutes/internal/pipeline"
)

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	airport := strings.TrimSpace(r.URL.Query().Get("airport"))
	if airport == "" {
		jsonError(w, "airport is required", http.StatusBadRequest)
		return
	}

	res, err := s.orchestrator.Service().Search(r.Context(), airport, nil)
	switch {
	case err == nil:
	case pipeline.IsNotFound(err):
		jsonError(w, pipeline.StatusMessage(err), http.StatusNotFound)
		return
	case errors.Is(err, r.Context().Err()):
		s.log.Warn("routes request cancelled", "airport", airport)
		return
	default:
		s.log.Error("routes lookup failed", "airport", airport, "error", err)
		jsonError(w, pipeline.StatusMessage(err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

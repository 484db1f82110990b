package api

import (
	"net/http"
)

// ConfigResponse is the data returned by GET /api/v1/config.
type ConfigResponse struct {
	Config     interface{} `json:"config"`
	ConfigFile string      `json:"config_file"` // empty when running on defaults
}

// handleGetConfig returns the running configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:     s.cfg,
			ConfigFile: s.cfg.Source,
		},
	})
}

package app

import (
	"encoding/json"
	"net/http"

	"github.com/frudas24/touchpad/internal/transport"
)

// RegisterRoutes wires the touch pad endpoint and API handlers onto the mux.
func (a *App) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle(transport.Path, a.Receiver())
	mux.HandleFunc("/api/state", a.handleState)
	mux.HandleFunc("/api/input", a.handleInput)
	mux.HandleFunc("/favicon.ico", handleFavicon)
}

type stateResponse struct {
	Connected    bool   `json:"connected"`
	PadID        string `json:"padId,omitempty"`
	InputEnabled bool   `json:"inputEnabled"`
	WheelStep    int    `json:"wheelStep"`
}

type inputRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleState returns the connected pad and injection status.
func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, connected := a.receiver.ActiveConnection()
	resp := stateResponse{
		Connected:    connected,
		PadID:        id,
		InputEnabled: a.InputEnabled(),
		WheelStep:    a.cfg.Receiver.WheelStep,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleInput toggles input injection.
func (a *App) handleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	a.SetInputEnabled(*req.Enabled)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"inputEnabled": a.InputEnabled()})
}

// handleFavicon avoids noisy 404s for the default browser request.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

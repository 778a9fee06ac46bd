package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// Health answers the liveness probe the admin view polls to keep the host
// from idling.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		OK bool  `json:"ok"`
		Ts int64 `json:"ts"`
	}{OK: true, Ts: time.Now().UnixMilli()})
}

// Root identifies the service when no frontend bundle is served.
func Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		OK      bool   `json:"ok"`
		Service string `json:"service"`
	}{OK: true, Service: "binaryblitz-backend"})
}

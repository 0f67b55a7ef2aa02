package handlers

import (
	"net/http"
	"runtime"
	"time"
)

var startTime = time.Now()

// HealthHandler responds with service health information.
type HealthHandler struct{}

type healthData struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Goroutine int    `json:"goroutines"`
}

// Handle implements GET /healthz.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	respondData(r.Context(), w, http.StatusOK, healthData{
		Status:    "healthy",
		Uptime:    time.Since(startTime).Truncate(time.Second).String(),
		Goroutine: runtime.NumGoroutine(),
	}, "OK")
}

package controllers

import (
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	"petcache/internal/models"
	"time"
)

type DocumentSource interface {
	Document() *models.Document
}

type HealthController struct {
	documents DocumentSource
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Records       int     `json:"records"`
	SchemaVersion int     `json:"schema_version"`
	SessionID     string  `json:"session_id"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	doc := hc.documents.Document()
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Records:       len(doc.Records),
		SchemaVersion: doc.SchemaVersion,
		SessionID:     doc.SessionID,
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(documents DocumentSource) *HealthController {
	return &HealthController{
		documents: documents,
		startTime: time.Now(),
	}
}

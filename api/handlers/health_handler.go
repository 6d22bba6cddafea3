package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

// Version is reported by the health endpoints
var Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	service   DownloadService
	fs        afero.Fs
	outputDir string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service DownloadService, fs afero.Fs, outputDir string) *HealthHandler {
	return &HealthHandler{
		service:   service,
		fs:        fs,
		outputDir: outputDir,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	HasTranscoder bool   `json:"has_transcoder"`
	Backend       string `json:"backend"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       Version,
		HasTranscoder: h.service.HasTranscoder(),
		Backend:       h.service.Backend(),
	})
}

// Ready handles GET /ready; the output directory must exist
func (h *HealthHandler) Ready(c *gin.Context) {
	if ok, err := afero.DirExists(h.fs, h.outputDir); err != nil || !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "output directory unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

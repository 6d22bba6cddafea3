package handlers

import (
	"context"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/yourusername/vidfetch/internal/domain"
	"go.uber.org/zap"
)

// DownloadService is the pipeline the handlers drive
type DownloadService interface {
	Fetch(ctx context.Context, rawURL string, choice domain.QualityChoice) (*domain.DownloadTicket, error)
	Retrieve(token string) (*domain.DownloadResult, bool)
	Choices() []domain.QualityChoice
	HasTranscoder() bool
	Backend() string
}

// FilesPath is the route prefix produced files are served under
const FilesPath = "/api/v1/files/"

// DownloadHandler handles the JSON API
type DownloadHandler struct {
	service DownloadService
	fs      afero.Fs
	logger  *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(service DownloadService, fs afero.Fs, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		service: service,
		fs:      fs,
		logger:  logger,
	}
}

// QualitiesResponse lists the presets valid for this server
type QualitiesResponse struct {
	HasTranscoder bool                   `json:"has_transcoder"`
	Qualities     []domain.QualityChoice `json:"qualities"`
	Default       domain.QualityChoice   `json:"default"`
}

// CreateDownloadRequest represents a request to download a video
type CreateDownloadRequest struct {
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
}

// DownloadResponse describes a produced file and how to fetch it
type DownloadResponse struct {
	Token           string     `json:"token"`
	Title           string     `json:"title"`
	FilePath        string     `json:"file_path"`
	FileName        string     `json:"file_name"`
	SizeBytes       int64      `json:"size_bytes"`
	DurationSeconds int64      `json:"duration_seconds"`
	ContentType     string     `json:"content_type"`
	DownloadURL     string     `json:"download_url"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

// NewDownloadResponse builds the response for a ticket
func NewDownloadResponse(ticket *domain.DownloadTicket) DownloadResponse {
	resp := DownloadResponse{
		Token:           ticket.Token,
		Title:           ticket.Result.Title,
		FilePath:        ticket.Result.FilePath,
		FileName:        ticket.Result.FileName,
		SizeBytes:       ticket.Result.SizeBytes,
		DurationSeconds: ticket.Result.DurationSeconds,
		ContentType:     ticket.Result.ContentType,
		DownloadURL:     FilesPath + ticket.Token,
	}
	if !ticket.ExpiresAt.IsZero() {
		expiresAt := ticket.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}
	return resp
}

// Qualities handles GET /api/v1/qualities
func (h *DownloadHandler) Qualities(c *gin.Context) {
	choices := h.service.Choices()
	c.JSON(http.StatusOK, QualitiesResponse{
		HasTranscoder: h.service.HasTranscoder(),
		Qualities:     choices,
		Default:       choices[0],
	})
}

// CreateDownload handles POST /api/v1/downloads.
// The request blocks until the engine finishes.
func (h *DownloadHandler) CreateDownload(c *gin.Context) {
	var req CreateDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.NewDownloadError(domain.KindInvalidInput, "request body must be JSON with a url field", err))
		return
	}

	choice := domain.QualityChoice(req.Quality)
	if choice == "" {
		choice = domain.DefaultQuality(h.service.HasTranscoder())
	}

	ticket, err := h.service.Fetch(c.Request.Context(), req.URL, choice)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewDownloadResponse(ticket))
}

// GetFile handles GET /api/v1/files/:token; each token serves its file once
func (h *DownloadHandler) GetFile(c *gin.Context) {
	result, ok := h.service.Retrieve(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Kind:  domain.KindInvalidInput,
			Error: "download link is unknown, expired or already used",
			Hint:  "Run the download again to get a new link.",
		})
		return
	}

	h.serveResult(c, result)
}

func (h *DownloadHandler) serveResult(c *gin.Context, result *domain.DownloadResult) {
	file, err := h.fs.Open(result.FilePath)
	if err != nil {
		h.logger.Warn("Produced file is gone", zap.String("file", result.FilePath), zap.Error(err))
		c.JSON(http.StatusNotFound, NewErrorResponse(
			domain.NewDownloadError(domain.KindFileNotProduced, "the file is no longer on the server", err)))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		respondError(c, domain.NewDownloadError(domain.KindUnknown, "failed to read file", err))
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": result.FileName})
	c.DataFromReader(http.StatusOK, info.Size(), result.ContentType, file, map[string]string{
		"Content-Disposition": disposition,
	})
}

package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vidfetch/internal/domain"
)

// IndexTemplate is the name of the form page template
const IndexTemplate = "index.html"

// FormHandler serves the HTML form and its submissions
type FormHandler struct {
	service DownloadService
}

// NewFormHandler creates a new form handler
func NewFormHandler(service DownloadService) *FormHandler {
	return &FormHandler{service: service}
}

// PageData is rendered by the index template
type PageData struct {
	URL           string
	Selected      domain.QualityChoice
	Qualities     []domain.QualityChoice
	HasTranscoder bool
	Result        *DownloadResponse
	Error         *ErrorResponse
}

func (h *FormHandler) page() PageData {
	return PageData{
		Selected:      domain.DefaultQuality(h.service.HasTranscoder()),
		Qualities:     h.service.Choices(),
		HasTranscoder: h.service.HasTranscoder(),
	}
}

// Index handles GET /
func (h *FormHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, IndexTemplate, h.page())
}

// Submit handles POST /download and renders the outcome on the form page
func (h *FormHandler) Submit(c *gin.Context) {
	data := h.page()
	data.URL = c.PostForm("url")
	if quality := c.PostForm("quality"); quality != "" {
		data.Selected = domain.QualityChoice(quality)
	}

	ticket, err := h.service.Fetch(c.Request.Context(), data.URL, data.Selected)
	if err != nil {
		resp := NewErrorResponse(err)
		data.Error = &resp
		c.HTML(StatusFor(err), IndexTemplate, data)
		return
	}

	resp := NewDownloadResponse(ticket)
	data.Result = &resp
	c.HTML(http.StatusOK, IndexTemplate, data)
}

// TemplateFuncs are the helpers available to page templates
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"humanBytes":    HumanBytes,
		"humanDuration": HumanDuration,
	}
}

// HumanBytes formats a byte count with binary units, e.g. "4.2 MB"
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// HumanDuration formats whole seconds as m:ss or h:mm:ss
func HumanDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int64(d / time.Hour)
	m := int64(d%time.Hour) / int64(time.Minute)
	s := int64(d%time.Minute) / int64(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

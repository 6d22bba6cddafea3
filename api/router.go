package api

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch/api/handlers"
	"github.com/yourusername/vidfetch/api/middleware"
	"github.com/yourusername/vidfetch/pkg/logger"
	"github.com/yourusername/vidfetch/web"
)

// SetupRouter wires the form, the JSON API and file retrieval onto a gin engine.
// events may be nil.
func SetupRouter(
	service handlers.DownloadService,
	fs afero.Fs,
	outputDir string,
	log *zap.Logger,
	events *logger.MultiLogger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(log, events))
	router.Use(middleware.Recovery(log, events))
	router.Use(middleware.CORS())

	tmpl := template.Must(template.New("").Funcs(handlers.TemplateFuncs()).ParseFS(web.TemplatesFS(), "*.html"))
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", http.FS(web.StaticFS()))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(service, fs, outputDir)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// HTML form
	formHandler := handlers.NewFormHandler(service)
	router.GET("/", formHandler.Index)
	router.POST("/download", formHandler.Submit)

	// API v1 routes
	downloadHandler := handlers.NewDownloadHandler(service, fs, log)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/qualities", downloadHandler.Qualities)
		v1.POST("/downloads", downloadHandler.CreateDownload)
		v1.GET("/files/:token", downloadHandler.GetFile)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Redirect(http.StatusFound, "/")
	})

	return router
}

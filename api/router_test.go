package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidfetch/api/handlers"
	"github.com/yourusername/vidfetch/internal/app"
	"github.com/yourusername/vidfetch/internal/domain"
)

// fakeExtractor writes a file into the configured output directory
type fakeExtractor struct {
	fs      afero.Fs
	content []byte
	err     error
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(ctx context.Context, videoURL string, cfg *domain.DownloadConfig) (*domain.RawInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	reported := filepath.Join(cfg.OutputDir(), "Demo Clip.webm")
	written := reported
	if pp := cfg.AudioExtraction(); pp != nil {
		written = domain.ReplaceExt(reported, pp.Codec)
	}
	if err := afero.WriteFile(f.fs, written, f.content, 0644); err != nil {
		return nil, err
	}
	return &domain.RawInfo{Title: "Demo Clip", Filename: reported, Duration: 75}, nil
}

func setupTestRouter(t *testing.T, extractor *fakeExtractor, hasTranscoder bool) http.Handler {
	t.Helper()
	fs := extractor.fs
	require.NoError(t, fs.MkdirAll("downloads", 0755))

	manager := app.NewDownloadManager(
		app.NewQualityPolicy("downloads"),
		extractor,
		app.NewResultInterpreter(fs),
		app.NewRetrievalStore(time.Hour, zap.NewNop()),
		fs,
		nil,
		app.ManagerOptions{HasTranscoder: hasTranscoder, UniqueNames: true, Timeout: time.Minute},
		zap.NewNop(),
		nil,
	)
	return SetupRouter(manager, fs, "downloads", zap.NewNop(), nil)
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouter_Health(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs()}, true)

	w := get(router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.HasTranscoder)
	assert.Equal(t, "fake", resp.Backend)

	assert.Equal(t, http.StatusOK, get(router, "/ready").Code)
}

func TestRouter_Qualities(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs()}, false)

	w := get(router, "/api/v1/qualities")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.QualitiesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.HasTranscoder)
	assert.Equal(t, domain.QualityChoices(false), resp.Qualities)
	assert.Equal(t, domain.QualitySingleBest, resp.Default)
}

func TestRouter_DownloadAndRetrieveOnce(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs(), content: []byte("mp3-data")}, true)

	w := postJSON(t, router, "/api/v1/downloads", handlers.CreateDownloadRequest{
		URL:     "https://www.youtube.com/watch?v=abc",
		Quality: string(domain.QualityAudioMP3),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp handlers.DownloadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Demo Clip", resp.Title)
	assert.Equal(t, "Demo Clip.mp3", resp.FileName)
	assert.Equal(t, "audio/mpeg", resp.ContentType)
	assert.Equal(t, int64(len("mp3-data")), resp.SizeBytes)
	assert.Equal(t, int64(75), resp.DurationSeconds)
	assert.Equal(t, "/api/v1/files/"+resp.Token, resp.DownloadURL)
	require.NotNil(t, resp.ExpiresAt)

	file := get(router, resp.DownloadURL)
	require.Equal(t, http.StatusOK, file.Code)
	assert.Equal(t, "mp3-data", file.Body.String())
	assert.Equal(t, "audio/mpeg", file.Header().Get("Content-Type"))
	assert.Contains(t, file.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, file.Header().Get("Content-Disposition"), "Demo Clip.mp3")

	again := get(router, resp.DownloadURL)
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestRouter_DownloadDefaultsQuality(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs(), content: []byte("v")}, true)

	w := postJSON(t, router, "/api/v1/downloads", map[string]string{"url": "https://example.com/v"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouter_DownloadErrors(t *testing.T) {
	tests := []struct {
		name       string
		extractor  *fakeExtractor
		body       interface{}
		wantStatus int
		wantKind   domain.FailureKind
	}{
		{
			name:       "empty url",
			extractor:  &fakeExtractor{},
			body:       handlers.CreateDownloadRequest{URL: "  "},
			wantStatus: http.StatusBadRequest,
			wantKind:   domain.KindInvalidInput,
		},
		{
			name:       "invalid choice",
			extractor:  &fakeExtractor{},
			body:       handlers.CreateDownloadRequest{URL: "https://example.com/v", Quality: "8K"},
			wantStatus: http.StatusBadRequest,
			wantKind:   domain.KindInvalidChoice,
		},
		{
			name: "engine failure",
			extractor: &fakeExtractor{
				err: domain.NewDownloadError(domain.KindExternalService, "Unsupported URL", nil),
			},
			body:       handlers.CreateDownloadRequest{URL: "https://example.com/page"},
			wantStatus: http.StatusBadGateway,
			wantKind:   domain.KindExternalService,
		},
		{
			name:       "empty output",
			extractor:  &fakeExtractor{content: nil},
			body:       handlers.CreateDownloadRequest{URL: "https://example.com/v"},
			wantStatus: http.StatusInternalServerError,
			wantKind:   domain.KindEmptyOutput,
		},
		{
			name:       "engine timeout",
			extractor:  &fakeExtractor{err: context.DeadlineExceeded},
			body:       handlers.CreateDownloadRequest{URL: "https://example.com/v"},
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   domain.KindExternalService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.extractor.fs = afero.NewMemMapFs()
			router := setupTestRouter(t, tt.extractor, true)

			w := postJSON(t, router, "/api/v1/downloads", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var resp handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.Hint)
		})
	}
}

func TestRouter_MalformedJSON(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs()}, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/downloads", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_UnknownFileToken(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs()}, true)
	assert.Equal(t, http.StatusNotFound, get(router, "/api/v1/files/nope").Code)
}

func TestRouter_FormPage(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs()}, false)

	w := get(router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<form method="post" action="/download">`)
	assert.Contains(t, body, string(domain.QualitySingle720p))
	assert.NotContains(t, body, string(domain.QualityAudioMP3))
	assert.Contains(t, body, "ffmpeg was not found")
}

func TestRouter_FormSubmit(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs(), content: []byte("video")}, true)

	form := url.Values{"url": {"https://example.com/v"}, "quality": {string(domain.Quality720p)}}
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Download complete")
	assert.Contains(t, body, "Demo Clip")
	assert.Contains(t, body, "/api/v1/files/")
	assert.Contains(t, body, "1:15")
}

func TestRouter_FormSubmitError(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs()}, true)

	form := url.Values{"url": {""}, "quality": {string(domain.QualityBest)}}
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a video URL")
}

func TestRouter_StaticAssets(t *testing.T) {
	router := setupTestRouter(t, &fakeExtractor{fs: afero.NewMemMapFs()}, true)

	w := get(router, "/static/app.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "font-family")
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client talks to a vidfetch server
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL. Downloads block until the engine finishes,
// so the HTTP client carries no overall timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// APIError is a failure reported by the server
type APIError struct {
	Status int
	Kind   string `json:"kind"`
	Msg    string `json:"error"`
	Hint   string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// QualityList mirrors GET /api/v1/qualities
type QualityList struct {
	HasTranscoder bool     `json:"has_transcoder"`
	Qualities     []string `json:"qualities"`
	Default       string   `json:"default"`
}

// Download mirrors the POST /api/v1/downloads response
type Download struct {
	Token           string `json:"token"`
	Title           string `json:"title"`
	FilePath        string `json:"file_path"`
	FileName        string `json:"file_name"`
	SizeBytes       int64  `json:"size_bytes"`
	DurationSeconds int64  `json:"duration_seconds"`
	ContentType     string `json:"content_type"`
	DownloadURL     string `json:"download_url"`
}

// Health mirrors GET /health
type Health struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	HasTranscoder bool   `json:"has_transcoder"`
	Backend       string `json:"backend"`
}

// Health checks the server
func (c *Client) Health() (*Health, error) {
	var health Health
	if err := c.getJSON("/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Qualities lists the presets the server accepts
func (c *Client) Qualities() (*QualityList, error) {
	var list QualityList
	if err := c.getJSON("/api/v1/qualities", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateDownload asks the server to download url at quality (empty for the server default)
func (c *Client) CreateDownload(url, quality string) (*Download, error) {
	payload, err := json.Marshal(map[string]string{"url": url, "quality": quality})
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Post(c.baseURL+"/api/v1/downloads", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(resp)
	}

	var download Download
	if err := json.NewDecoder(resp.Body).Decode(&download); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &download, nil
}

// SaveFile retrieves a produced file into dir and returns the written path
func (c *Client) SaveFile(download *Download, dir string) (string, error) {
	resp, err := c.http.Get(c.baseURL + download.DownloadURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}

	name := download.FileName
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	name = filepath.Base(name)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// IsRunning reports whether the server answers its health check
func (c *Client) IsRunning() bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) getJSON(path string, out interface{}) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Msg == "" {
		apiErr.Msg = strings.TrimSpace(string(body))
	}
	return apiErr
}

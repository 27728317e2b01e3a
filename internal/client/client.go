// Package client drives the analysis API from the command line: single
// submissions, status polls, archive downloads, and the concurrent batch
// runs built on top of them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Per-operation defaults, matching how long each round-trip is expected to
// take: submissions carry a file body, downloads carry a whole archive.
const (
	DefaultSubmitTimeout   = 30 * time.Second
	DefaultStatusTimeout   = 10 * time.Second
	DefaultDownloadTimeout = 180 * time.Second
)

// Client is a thin HTTP client for the analysis service. Timeouts apply per
// operation kind and are independently configurable.
type Client struct {
	BaseURL         string
	SubmitTimeout   time.Duration
	StatusTimeout   time.Duration
	DownloadTimeout time.Duration

	httpClient *http.Client
}

// New builds a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		SubmitTimeout:   DefaultSubmitTimeout,
		StatusTimeout:   DefaultStatusTimeout,
		DownloadTimeout: DefaultDownloadTimeout,
		httpClient:      &http.Client{},
	}
}

// StatusInfo mirrors the status endpoint payload.
type StatusInfo struct {
	TaskID string          `json:"task_id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

// Submit uploads one PDF and returns the assigned task id.
func (c *Client) Submit(ctx context.Context, pdfPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.SubmitTimeout)
	defer cancel()

	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/process-pdf/", &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("api error: status %d - %s", resp.StatusCode, readBody(resp.Body))
	}
	var payload struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if payload.TaskID == "" {
		return "", fmt.Errorf("api response did not include a task_id")
	}
	return payload.TaskID, nil
}

// Status fetches the current lifecycle snapshot for a task.
func (c *Client) Status(ctx context.Context, taskID string) (StatusInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.StatusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/tasks/status/"+taskID, nil)
	if err != nil {
		return StatusInfo{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StatusInfo{}, fmt.Errorf("check status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusInfo{}, fmt.Errorf("api error: status %d - %s", resp.StatusCode, readBody(resp.Body))
	}
	var info StatusInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return StatusInfo{}, fmt.Errorf("decode response: %w", err)
	}
	return info, nil
}

// Download streams the result archive for a completed task into destDir and
// returns the local file path. The local name follows the server's
// Content-Disposition hint, falling back to a task-id-derived name.
func (c *Client) Download(ctx context.Context, taskID, destDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/tasks/result/download/"+taskID, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error: status %d - %s", resp.StatusCode, readBody(resp.Body))
	}

	filename := dispositionFilename(resp.Header.Get("Content-Disposition"))
	if filename == "" {
		filename = fmt.Sprintf("task_%s_results.zip", taskID)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	localPath := filepath.Join(destDir, filename)
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create local file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("write local file: %w", err)
	}
	return localPath, nil
}

// ListPDFs returns the PDF files directly inside dir (non-recursive),
// matching the extension case-insensitively.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var pdfs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(dir, e.Name()))
		}
	}
	return pdfs, nil
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

func readBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Package api wires the HTTP surface: submission, status, and result
// packaging.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"pdf-analysis-service/internal/analyzer"
	"pdf-analysis-service/internal/archive"
	"pdf-analysis-service/internal/config"
	"pdf-analysis-service/internal/jobstore"
	"pdf-analysis-service/internal/ratelimit"
	"pdf-analysis-service/internal/telemetry"
)

// Server holds the handler dependencies. It keeps no job state of its own;
// everything a request needs lives in the store or on disk.
type Server struct {
	cfg     config.Config
	store   jobstore.Store
	limiter *ratelimit.Limiter
	log     zerolog.Logger
}

// New constructs the API server. limiter may be nil to disable throttling.
func New(cfg config.Config, store jobstore.Store, limiter *ratelimit.Limiter, log zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		limiter: limiter,
		log:     log,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/metrics", telemetry.Handler())

	r.Post("/process-pdf/", s.handleSubmit)
	r.Get("/tasks/status/{taskID}", s.handleStatus)
	r.Get("/tasks/result/download/{taskID}", s.handleDownload)
	return r
}

type submitResponse struct {
	TaskID    string `json:"task_id"`
	StatusURL string `json:"status_url"`
}

type statusResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Result any    `json:"result"`
}

// handleSubmit accepts a multipart PDF upload, persists it where the executor
// can read it, and enqueues an analysis task without waiting on it.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(r.Context(), "rl:"+clientIP(r))
		if err != nil {
			s.log.Error().Err(err).Msg("rate limiter unavailable")
			writeDetail(w, http.StatusInternalServerError, "Rate limiter unavailable.")
			return
		}
		if !allowed {
			telemetry.RateLimitRejects.Inc()
			writeDetail(w, http.StatusTooManyRequests, "Too many submissions; retry later.")
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		telemetry.SubmissionsRejected.Inc()
		writeDetail(w, http.StatusBadRequest, "Request must carry a multipart 'file' field.")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) {
		filename = ""
	}
	if filename == "" || !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		telemetry.SubmissionsRejected.Inc()
		writeDetail(w, http.StatusBadRequest, "Invalid file type. Only PDF files are accepted.")
		return
	}

	inputPath := filepath.Join(s.cfg.InputDir, filename)
	outputDir := filepath.Join(s.cfg.OutputDir, analyzer.Stem(filename))

	if err := s.saveUpload(file, inputPath); err != nil {
		s.log.Error().Err(err).Str("path", inputPath).Msg("failed to save upload")
		writeDetail(w, http.StatusInternalServerError, "Failed to save uploaded file.")
		return
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		s.log.Error().Err(err).Str("dir", outputDir).Msg("failed to create output directory")
		writeDetail(w, http.StatusInternalServerError, "Failed to prepare output directory.")
		return
	}

	taskID, err := s.store.Enqueue(r.Context(), jobstore.TaskSpec{
		PDFPath:   inputPath,
		OutputDir: outputDir,
	})
	if err != nil {
		telemetry.EnqueueFailures.Inc()
		s.log.Error().Err(err).Str("file", filename).Msg("failed to enqueue analysis task")
		writeDetail(w, http.StatusInternalServerError, "Failed to enqueue analysis task.")
		return
	}

	telemetry.SubmissionsAccepted.Inc()
	s.log.Info().Str("task_id", taskID).Str("file", filename).Str("output_dir", outputDir).Msg("task submitted")
	writeJSON(w, http.StatusAccepted, submitResponse{
		TaskID:    taskID,
		StatusURL: "/tasks/status/" + taskID,
	})
}

// handleStatus reports the task lifecycle state. The result field stays null
// until a terminal state; on FAILURE it carries the stringified error. An id
// the broker has never seen reads as PENDING.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	snap, err := s.store.Status(r.Context(), taskID)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", taskID).Msg("status lookup failed")
		writeDetail(w, http.StatusInternalServerError, "Failed to read task status.")
		return
	}

	resp := statusResponse{TaskID: taskID, Status: string(snap.State)}
	switch snap.State {
	case jobstore.StateSuccess:
		resp.Result = snap.Result
	case jobstore.StateFailure:
		resp.Result = snap.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDownload streams the job's output directory as a zip archive. The
// archive is built directly onto the response; nothing is staged on disk.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	snap, err := s.store.Status(r.Context(), taskID)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", taskID).Msg("status lookup failed")
		writeDetail(w, http.StatusInternalServerError, "Failed to read task status.")
		return
	}

	if !snap.State.Terminal() {
		writeDetail(w, http.StatusConflict, fmt.Sprintf("Task is still processing (status: %s).", snap.State))
		return
	}
	if snap.State == jobstore.StateFailure || len(snap.Result) == 0 {
		writeDetail(w, http.StatusNotFound, "Task failed; no result is available.")
		return
	}

	var result struct {
		OutputDirectory string `json:"output_directory"`
	}
	if err := json.Unmarshal(snap.Result, &result); err != nil || result.OutputDirectory == "" {
		s.log.Error().Err(err).Str("task_id", taskID).Msg("stored result has no output directory")
		writeDetail(w, http.StatusNotFound, "Result payload is missing an output directory.")
		return
	}
	if info, err := os.Stat(result.OutputDirectory); err != nil || !info.IsDir() {
		// The result store outlived the files; cleanup happened out of band.
		writeDetail(w, http.StatusNotFound, "Output directory no longer exists on disk.")
		return
	}

	dirName := filepath.Base(result.OutputDirectory)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=results_%s.zip", dirName))
	if err := archive.WriteDir(w, result.OutputDirectory, dirName); err != nil {
		// Headers are already on the wire; all we can do is log.
		s.log.Error().Err(err).Str("task_id", taskID).Msg("archive stream aborted")
		return
	}
	telemetry.DownloadsServed.Inc()
	s.log.Info().Str("task_id", taskID).Str("dir", result.OutputDirectory).Msg("result archive served")
}

func (s *Server) saveUpload(file io.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create input dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create input file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		return fmt.Errorf("write input file: %w", err)
	}
	return nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

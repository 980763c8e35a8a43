// Package server is the HTTP front end of autodoc: an upload form and an
// endpoint that runs the pipeline and streams the documented archive back.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"

	"autodoc/pkg/pipeline"
)

// StatusHeader carries the run status next to a streamed artifact.
const StatusHeader = "X-Autodoc-Status"

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, src pipeline.Source) (pipeline.Result, error)
}

// Server serves the upload form and the run endpoint.
type Server struct {
	runner        Runner
	maxUploadSize int64
	logger        *zap.Logger
}

// New returns a Server. maxUploadSize bounds the multipart body in bytes.
func New(runner Runner, maxUploadSize int64, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{runner: runner, maxUploadSize: maxUploadSize, logger: logger}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, indexHTML)
	})
	r.Post("/runs", s.handleRun)
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Errorf("shutting down: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "Error: " + err.Error()})
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	archivePath, cleanup, err := saveUpload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "Error: " + err.Error()})
		return
	}
	defer cleanup()

	src, err := pipeline.SelectSource(r.FormValue("repo_url"), archivePath)
	if err != nil && !errors.Is(err, pipeline.ErrNoInput) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": pipeline.StatusMessage(err)})
		return
	}

	res, err := s.runner.Run(r.Context(), src)
	if err != nil {
		code := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, pipeline.ErrNoInput):
			code = http.StatusBadRequest
		case errors.Is(err, pipeline.ErrRunInProgress):
			code = http.StatusConflict
		}
		s.logger.Warn("Run failed", zap.Int("code", code), zap.Error(err))
		writeJSON(w, code, map[string]string{"status": pipeline.StatusMessage(err)})
		return
	}

	f, err := os.Open(res.ArtifactPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "Error: " + err.Error()})
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(res.ArtifactPath)+`"`)
	w.Header().Set(StatusHeader, res.Status)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("Failed to stream artifact", zap.Error(err))
	}
}

// saveUpload copies the "archive" form file to a temp file. Without an
// upload it returns an empty path.
func saveUpload(r *http.Request) (string, func(), error) {
	noop := func() {}
	file, _, err := r.FormFile("archive")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", noop, nil
	}
	if err != nil {
		return "", noop, errors.Errorf("reading upload: %w", err)
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "autodoc-upload-*.zip")
	if err != nil {
		return "", noop, errors.Errorf("storing upload: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		cleanup()
		return "", noop, errors.Errorf("storing upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, errors.Errorf("storing upload: %w", err)
	}
	return tmp.Name(), cleanup, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("requestID", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>autodoc</title></head>
<body>
<h1>autodoc</h1>
<p>Upload a project to add documentation comments automatically.</p>
<form method="post" action="/runs" enctype="multipart/form-data">
  <p><label>Git repository URL <input type="url" name="repo_url" size="60"></label></p>
  <p><label>or zip archive <input type="file" name="archive" accept=".zip"></label></p>
  <p><button type="submit">Generate docs</button></p>
</form>
</body>
</html>
`

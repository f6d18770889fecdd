package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blake-leads/enrich-cli/internal/feed"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload/analyze HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		hub := feed.NewHub(512)
		hub.AttachToGlobals(zapcore.InfoLevel)

		env, err := initPipeline()
		if err != nil {
			return err
		}

		go env.Workspace.RunSweeper(ctx)

		srvHandler := &server{env: env, hub: hub}

		r := chi.NewRouter()
		r.Use(chimw.RequestID)
		r.Use(chimw.RealIP)
		r.Use(chimw.Recoverer)
		r.Use(cors.Handler(corsOptions(allowedOrigin())))
		r.Use(srvHandler.withUser)

		r.Get("/health", srvHandler.handleHealth)
		r.Post("/upload", srvHandler.handleUpload)
		r.Post("/analyze", srvHandler.handleAnalyze)
		r.Get("/download/{filename}", srvHandler.handleDownload)
		r.Get("/terminal-feed", srvHandler.handleTerminalFeed)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			// The signal context is already canceled; give in-flight jobs
			// their own drain window.
			sctx, cancel := drainContext()
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func allowedOrigin() string {
	if cfg.Server.AllowedOrigin != "" {
		return cfg.Server.AllowedOrigin
	}
	return "*"
}

// corsOptions builds the CORS policy for one origin. Browsers reject
// credentialed responses with a wildcard origin, so the uid cookie only
// flows when a concrete origin is configured.
func corsOptions(origin string) cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: origin != "*",
	}
}

// drainContext bounds graceful shutdown independently of the signal
// context, which is already canceled by the time Shutdown runs.
func drainContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

type server struct {
	env *env
	hub *feed.Hub
}

type userKey struct{}

// withUser issues an opaque uuid cookie on first visit and threads the id
// through the request context.
func (s *server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := cfg.Server.CookieName
		uid := ""
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			uid = c.Value
		}
		if uid == "" {
			uid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     name,
				Value:    uid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, uid)))
	})
}

func requestUID(r *http.Request) string {
	if uid, ok := r.Context().Value(userKey{}).(string); ok {
		return uid
	}
	return "anonymous"
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload saves the multipart file into the user's upload dir and
// runs format analysis. No scraping happens on this path.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	uid := requestUID(r)

	maxBytes := int64(cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	tabType := r.FormValue("tab_type")
	switch tabType {
	case "phone", "address", "columnSync":
	default:
		httpError(w, http.StatusBadRequest, "tab_type must be phone, address, or columnSync")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	dir, err := s.env.Workspace.UploadsDir(uid)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "workspace unavailable")
		return
	}
	dest := filepath.Join(dir, filepath.Base(header.Filename))
	out, err := os.Create(dest)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		httpError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}
	if err := out.Close(); err != nil {
		httpError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}

	result, err := s.env.Pipeline.AnalyzeUpload(r.Context(), uid, dest)
	if err != nil {
		zap.L().Error("upload analysis failed", zap.Error(err))
		httpError(w, http.StatusUnprocessableEntity, "file could not be analyzed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tab_type": tabType,
		"upload":   result,
	})
}

// handleAnalyze runs the scraping job for an already uploaded file and
// returns the download URL of the merged output.
func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	uid := requestUID(r)

	var req struct {
		Filepath     string `json:"filepath"`
		AnalysisType string `json:"analysis_type"`
		MaxRecords   int    `json:"max_records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Filepath == "" {
		httpError(w, http.StatusBadRequest, "filepath is required")
		return
	}

	dir, err := s.env.Workspace.UploadsDir(uid)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "workspace unavailable")
		return
	}
	path := filepath.Join(dir, filepath.Base(req.Filepath))

	var result any
	switch req.AnalysisType {
	case "address":
		result, err = s.env.Pipeline.RunOwnerJob(r.Context(), uid, path, req.MaxRecords)
	case "phone":
		result, err = s.env.Pipeline.RunPhoneJob(r.Context(), uid, path, req.MaxRecords)
	case "columnSync":
		result, err = s.env.Pipeline.ValidateFile(r.Context(), uid, path)
	default:
		httpError(w, http.StatusBadRequest, "analysis_type must be phone, address, or columnSync")
		return
	}
	if err != nil {
		zap.L().Error("analysis failed",
			zap.String("type", req.AnalysisType),
			zap.Error(err),
		)
		httpError(w, http.StatusUnprocessableEntity, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":       result,
		"download_url": "/download/" + outputName(result),
	})
}

// handleDownload streams a file from the user's results directory and
// cleans up the batch files behind it.
func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	uid := requestUID(r)
	name := filepath.Base(chi.URLParam(r, "filename"))

	dir, err := s.env.Workspace.ResultsDir(uid)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "workspace unavailable")
		return
	}
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		httpError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
	if _, err := io.Copy(w, f); err != nil {
		zap.L().Warn("download interrupted", zap.String("file", name), zap.Error(err))
		return
	}

	if err := s.env.Workspace.CleanupBatchFiles(uid); err != nil {
		zap.L().Warn("batch cleanup failed", zap.Error(err))
	}
}

// handleTerminalFeed streams log events over SSE.
func (s *server) handleTerminalFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func outputName(result any) string {
	b, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	var probe struct {
		OutputName string `json:"output_name"`
		// Upload analyses have no download; staging path stands in.
		StagingPath string `json:"staging_path"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return ""
	}
	if probe.OutputName != "" {
		return probe.OutputName
	}
	return filepath.Base(probe.StagingPath)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

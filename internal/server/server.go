package server

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/KaramelBytes/segloom/internal/dataset"
	"github.com/KaramelBytes/segloom/internal/pipeline"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Options configures the HTTP boundary.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Server exposes the segmentation pipeline over HTTP.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	log    zerolog.Logger
	router *gin.Engine
}

// New wires routes and middlewares. Every request runs its own pipeline.
func New(runner *pipeline.Runner, opts Options, log zerolog.Logger) *Server {
	s := &Server{runner: runner, opts: opts, log: log}
	r := gin.New()
	r.Use(s.cors(), s.httpLogger(), gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/segment", s.segment)
	r.GET("/segment", s.segment)
	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) cors() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(s.opts.AllowedOrigins) == 0 || (len(s.opts.AllowedOrigins) == 1 && s.opts.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.opts.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	return cors.New(corsConfig)
}

func (s *Server) httpLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) segment(c *gin.Context) {
	if s.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	}
	fh, err := uploadedFile(c)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.String(http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		status, msg := pipeline.Classify(err)
		c.String(status, msg)
		return
	}
	f, err := fh.Open()
	if err != nil {
		status, msg := pipeline.Classify(err)
		c.String(status, msg)
		return
	}
	defer f.Close()

	res, err := s.runner.Run(c.Request.Context(), pipeline.Upload{Filename: fh.Filename, Body: f})
	if err != nil {
		status, msg := pipeline.Classify(err)
		c.String(status, msg)
		return
	}
	c.JSON(http.StatusOK, res.Artifacts)
}

// uploadedFile returns the "file" part. A part sent with an empty filename is
// stored by mime/multipart as a plain value, which is how "No file selected"
// is told apart from "No file uploaded".
func uploadedFile(c *gin.Context) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, err
		}
		return nil, dataset.ErrNoFile()
	}
	if files := form.File["file"]; len(files) > 0 {
		if files[0].Filename == "" {
			return nil, dataset.ErrNoSelection()
		}
		return files[0], nil
	}
	if _, ok := form.Value["file"]; ok {
		return nil, dataset.ErrNoSelection()
	}
	return nil, dataset.ErrNoFile()
}

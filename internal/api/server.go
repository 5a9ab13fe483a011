// Package api exposes the local HTTP control surface: session editing,
// command preview, cut jobs, playback and player control. It binds to
// loopback only and requires the generated bearer token on everything
// except /health.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hermit-crab/ffcutter/internal/catalog"
	"github.com/hermit-crab/ffcutter/internal/player"
	"github.com/hermit-crab/ffcutter/internal/probe"
	"github.com/hermit-crab/ffcutter/internal/session"
	"github.com/hermit-crab/ffcutter/internal/thumbs"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port      int
	Logger    *slog.Logger
	StartTime time.Time
	Version   string

	VideoPath string
	Video     *catalog.Video
	Session   *session.Manager

	// Probe may be nil when ffprobe failed; handlers degrade to player
	// reported values.
	Probe *probe.Result

	// FrameIndex returns the frame index once the background build has
	// finished, nil before that (or with --no-index, always).
	FrameIndex func() *probe.Index

	Player   player.Player
	Playback http.Handler
	Thumbs   thumbs.Generator

	CatalogService *catalog.Service
	Repository     catalog.Repository
	Runner         *catalog.Runner

	FFmpegBinary string
	TmpDir       string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // playback responses stream for as long as the client reads
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

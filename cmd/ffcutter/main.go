package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hermit-crab/ffcutter/internal/api"
	"github.com/hermit-crab/ffcutter/internal/catalog"
	"github.com/hermit-crab/ffcutter/internal/config"
	"github.com/hermit-crab/ffcutter/internal/db"
	"github.com/hermit-crab/ffcutter/internal/ffmpeg"
	"github.com/hermit-crab/ffcutter/internal/logging"
	"github.com/hermit-crab/ffcutter/internal/playback"
	"github.com/hermit-crab/ffcutter/internal/player"
	"github.com/hermit-crab/ffcutter/internal/probe"
	"github.com/hermit-crab/ffcutter/internal/session"
	"github.com/hermit-crab/ffcutter/internal/thumbs"
	"github.com/hermit-crab/ffcutter/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	inv, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.CacheDir(), 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())

	if _, err := os.Stat(inv.VideoFile); err != nil {
		return fmt.Errorf("video file: %w", err)
	}

	store := session.NewStore(inv.SaveFile)
	sess, err := session.NewManager(store)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "ffcutter_")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if inv.CutOnly || inv.PrintOnly {
		return runCut(inv, cfg, sess, tmpDir, logger)
	}
	return runInteractive(inv, cfg, sess, tmpDir, startTime, logger)
}

// runCut is the non-interactive path: resolve the saved session into
// commands, then print or execute them. No database, API, tray or player.
func runCut(inv *config.Invocation, cfg config.Config, sess *session.Manager, tmpDir string, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !sess.Store().Exists() {
		return fmt.Errorf("no save file at %s", sess.Store().Path())
	}

	duration, frameDur, pts := probeVideo(ctx, inv, cfg, logger)

	segs, err := sess.CutSegments(duration, frameDur, pts)
	if err != nil {
		return err
	}

	snap := sess.Snapshot()
	plan := &ffmpeg.Plan{
		Binary:   resolveBinary(cfg.FFmpegPath(), "ffmpeg"),
		Input:    inv.VideoFile,
		Segments: segs,
		Encode:   snap.Encode,
		TwoPass:  snap.TwoPass,
		TmpDir:   tmpDir,
		Args:     ffmpeg.ParseArgsBlock(snap.FFArgs, inv.VideoFile),
	}
	cs, err := plan.Build()
	if err != nil {
		return err
	}

	if inv.PrintOnly {
		fmt.Print(cs.Preview())
		return nil
	}

	if err := cs.WriteListFile(); err != nil {
		return err
	}

	exec := ffmpeg.NewExecutor(logger)
	err = exec.RunAll(ctx, cs.Commands, func(i, n int, argv []string) {
		logger.Info("cut step", "step", i+1, "total", n)
	})
	if err != nil {
		return err
	}

	logger.Info("cut finished", "output", cs.OutFile)
	return nil
}

// probeVideo gathers duration, frame duration and the frame index for
// boundary snapping. All of it is optional; cutting still works with
// whatever could be determined.
func probeVideo(ctx context.Context, inv *config.Invocation, cfg config.Config, logger *slog.Logger) (duration, frameDur float64, pts []float64) {
	ffprobeBin := resolveBinary(cfg.FFprobePath(), "ffprobe")

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if res, err := probe.NewProber(ffprobeBin).Probe(probeCtx, inv.VideoFile); err != nil {
		logger.Warn("ffprobe failed, cutting without probe data", "error", err)
	} else {
		duration = res.Format.Duration
		frameDur = res.FrameDuration()
	}

	if !inv.NoIndex {
		indexer := probe.NewIndexer(ffprobeBin, cfg.CacheDir(), logger)
		if idx, err := indexer.Load(ctx, inv.VideoFile); err != nil {
			logger.Warn("frame index failed, boundaries will not snap", "error", err)
		} else {
			pts = idx.PTS
		}
	}
	return duration, frameDur, pts
}

func runInteractive(inv *config.Invocation, cfg config.Config, sess *session.Manager, tmpDir string, startTime time.Time, logger *slog.Logger) error {
	logger.Info("starting ffcutter", "version", config.Version, "video", logging.SanitizePath(inv.VideoFile))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())
	catalogSvc := catalog.NewService(repo, logger)

	authToken, err := catalogSvc.EnsureAuthToken(context.Background())
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	ffmpegBin := resolveBinary(cfg.FFmpegPath(), "ffmpeg")
	ffprobeBin := resolveBinary(cfg.FFprobePath(), "ffprobe")
	mpvBin := resolveBinary(cfg.MPVPath(), "mpv")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec := ffmpeg.NewExecutor(logger)

	// Probe synchronously; most of the UI degrades without it, and it is
	// one fast ffprobe call.
	var probeResult *probe.Result
	probeCtx, probeCancel := context.WithTimeout(ctx, 30*time.Second)
	if res, err := probe.NewProber(ffprobeBin).Probe(probeCtx, inv.VideoFile); err != nil {
		logger.Warn("ffprobe failed", "error", err)
	} else {
		probeResult = res
		logger.Info("video probed",
			"duration", res.Format.Duration,
			"resolution", res.Resolution(),
			"format", res.Format.FormatName,
		)
	}
	probeCancel()

	var duration float64
	if probeResult != nil {
		duration = probeResult.Format.Duration
	}
	video, err := catalogSvc.RegisterVideo(ctx, inv.VideoFile, sess.Store().Path(), duration)
	if err != nil {
		return err
	}

	// The frame index can take a while on long files, so it loads in the
	// background and snapping simply starts working once it is there.
	var frameIndex atomic.Pointer[probe.Index]
	if !inv.NoIndex {
		go func() {
			indexer := probe.NewIndexer(ffprobeBin, cfg.CacheDir(), logger)
			idx, err := indexer.Load(ctx, inv.VideoFile)
			if err != nil {
				logger.Warn("frame index failed", "error", err)
				return
			}
			frameIndex.Store(idx)
			logger.Info("frame index ready", "frames", len(idx.PTS), "keyframes", len(idx.Keyframes))
		}()
	}

	// Stream-copy seeking silently produces garbage on some files; probe
	// for that once in the background and warn.
	go func() {
		ok, err := ffmpeg.SeekCheck(ctx, exec, ffmpegBin, inv.VideoFile, 0, tmpDir)
		if err != nil {
			logger.Debug("seek check skipped", "error", err)
			return
		}
		if !ok {
			logger.Warn("stream-copy seeking looks inaccurate on this file, consider encode mode")
		}
	}()

	var plr player.Player
	mpv := player.NewMPV(mpvBin, tmpDir, inv.MPVOpts, logger)
	if err := mpv.Load(ctx, inv.VideoFile); err != nil {
		logger.Warn("mpv unavailable, running without preview", "error", err)
		plr = player.NewStub(logger)
	} else {
		plr = mpv
	}
	defer plr.Close()

	// When ffprobe failed the player is the only duration source, and mpv
	// reports it a moment after loading; backfill the catalog once it does.
	if video.Duration == 0 {
		go func() {
			for i := 0; i < 10; i++ {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				d, ok := plr.Duration()
				if !ok || d <= 0 {
					continue
				}
				if err := catalogSvc.UpdateDuration(ctx, video, d); err != nil {
					logger.Warn("failed to backfill duration", "error", err)
				} else {
					logger.Info("duration backfilled from player", "duration", d)
				}
				return
			}
		}()
	}

	runner := catalog.NewRunner(repo, exec, ffmpegBin, tmpDir, logger)
	go runner.Start(ctx)

	indexFn := func() *probe.Index { return frameIndex.Load() }
	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Logger:         logger,
		StartTime:      startTime,
		Version:        config.Version,
		VideoPath:      video.Path,
		Video:          video,
		Session:        sess,
		Probe:          probeResult,
		FrameIndex:     indexFn,
		Player:         plr,
		Playback:       playback.NewSource(video.Path, logger),
		Thumbs:         thumbs.NewFFmpegGenerator(logger),
		CatalogService: catalogSvc,
		Repository:     repo,
		Runner:         runner,
		FFmpegBinary:   ffmpegBin,
		TmpDir:         tmpDir,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	fmt.Printf("ffcutter v%s\n", config.Version)
	fmt.Printf("  control API: http://%s (token %s)\n", apiServer.Addr(), logging.SanitizeToken(authToken))
	fmt.Printf("  save file:   %s\n", sess.Store().Path())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	var tray *ui.Tray
	if inv.Headless {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray = ui.NewTray(ui.TrayConfig{
			Session: sess,
			Runner:  runner,
			Logger:  logger,
			OnCut: func() error {
				return enqueueCut(ctx, sess, catalogSvc, video, probeResult, plr, indexFn)
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	// A shutdown that started from a signal still has to tear the tray
	// loop down; systray.Quit is a no-op when the tray already exited.
	if tray != nil {
		tray.Quit()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// enqueueCut resolves the live session into a cut job using the best
// duration and frame data available at click time.
func enqueueCut(ctx context.Context, sess *session.Manager, svc *catalog.Service, video *catalog.Video, probeResult *probe.Result, plr player.Player, index func() *probe.Index) error {
	var duration, frameDur float64
	if probeResult != nil {
		duration = probeResult.Format.Duration
		frameDur = probeResult.FrameDuration()
	}
	if duration == 0 {
		if d, ok := plr.Duration(); ok {
			duration = d
		}
	}
	var pts []float64
	if idx := index(); idx != nil {
		pts = idx.PTS
	}

	segs, err := sess.CutSegments(duration, frameDur, pts)
	if err != nil {
		return err
	}

	snap := sess.Snapshot()
	_, err = svc.EnqueueCut(ctx, video.ID, &catalog.CutPayload{
		Segments: segs,
		Encode:   snap.Encode,
		TwoPass:  snap.TwoPass,
		FFArgs:   snap.FFArgs,
	})
	return err
}

// resolveBinary prefers the configured override and otherwise leaves
// resolution to PATH lookup.
func resolveBinary(override, name string) string {
	if override != "" {
		return override
	}
	return name
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hermit-crab/ffcutter/internal/catalog"
	"github.com/hermit-crab/ffcutter/internal/cutlist"
	"github.com/hermit-crab/ffcutter/internal/ffmpeg"
	"github.com/hermit-crab/ffcutter/internal/session"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/session", getSessionHandler(cfg))
		r.Put("/session", putSessionHandler(cfg))
		r.Post("/session/anchor", putAnchorHandler(cfg))
		r.Delete("/session/anchor", deleteAnchorHandler(cfg))
		r.Post("/session/mode", setModeHandler(cfg))

		r.Get("/commands", commandsHandler(cfg))
		r.Post("/cut", cutHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))

		r.Get("/videos", listVideosHandler(cfg))

		r.Get("/video", videoHandler(cfg))
		r.Get("/video/info", videoInfoHandler(cfg))
		r.Get("/video/thumbnail", thumbnailHandler(cfg))
		r.Get("/export/edl", exportEDLHandler(cfg))

		r.Get("/player", playerStateHandler(cfg))
		r.Post("/player/seek", playerSeekHandler(cfg))
		r.Post("/player/pause", playerPauseHandler(cfg))
		r.Post("/player/frame-step", playerFrameStepHandler(cfg))
		r.Post("/player/jump", playerJumpHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
			Video:   cfg.VideoPath,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		state := "idle"
		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		jobs, _ := cfg.Repository.ListJobs(ctx, 10)
		for _, j := range jobs {
			if j.Status == catalog.JobStatusRunning {
				state = "cutting"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == catalog.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}
		if lastError != "" && state == "idle" {
			state = "error"
		}
		if cfg.Runner != nil {
			jobsRunning = cfg.Runner.GetActiveJobCount(ctx)
		}

		snap := cfg.Session.Snapshot()
		resp := StatusResponse{
			State:       state,
			LastError:   lastError,
			Mode:        string(snap.Mode),
			Segments:    len(snap.Segments),
			Anchor:      snap.Anchor,
			IndexReady:  cfg.FrameIndex != nil && cfg.FrameIndex() != nil,
			JobsRunning: jobsRunning,
			ActiveJob:   activeJob,
		}
		if pos, ok := cfg.Player.Position(); ok {
			resp.Position = &pos
		}
		if dur, ok := cfg.Player.Duration(); ok {
			resp.Duration = &dur
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// listVideosHandler lists every file the catalog has seen, most recently
// opened first.
func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := cfg.Repository.ListVideos(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list videos", "INTERNAL_ERROR")
			return
		}

		resp := VideosResponse{Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = VideoToResponse(v)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid job id", "BAD_REQUEST")
			return
		}

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

// videoDuration prefers the probed container duration and falls back to
// what the player reports.
func videoDuration(cfg ServerConfig) float64 {
	if cfg.Probe != nil && cfg.Probe.Format.Duration > 0 {
		return cfg.Probe.Format.Duration
	}
	if dur, ok := cfg.Player.Duration(); ok {
		return dur
	}
	return 0
}

// cutSegments resolves the session into the material that survives the
// cut, using whatever duration and frame data is available right now.
func cutSegments(cfg ServerConfig) ([]cutlist.Segment, *session.State, error) {
	snap := cfg.Session.Snapshot()

	var frameDur float64
	if cfg.Probe != nil {
		frameDur = cfg.Probe.FrameDuration()
	}
	var pts []float64
	if cfg.FrameIndex != nil {
		if idx := cfg.FrameIndex(); idx != nil {
			pts = idx.PTS
		}
	}

	segs, err := cfg.Session.CutSegments(videoDuration(cfg), frameDur, pts)
	return segs, snap, err
}

// buildCommands turns the current session into the ffmpeg command set
// that /commands previews and /cut enqueues.
func buildCommands(cfg ServerConfig) (*ffmpeg.CommandSet, *session.State, error) {
	segs, snap, err := cutSegments(cfg)
	if err != nil {
		return nil, nil, err
	}

	plan := &ffmpeg.Plan{
		Binary:   cfg.FFmpegBinary,
		Input:    cfg.VideoPath,
		Segments: segs,
		Encode:   snap.Encode,
		TwoPass:  snap.TwoPass,
		TmpDir:   cfg.TmpDir,
		Args:     ffmpeg.ParseArgsBlock(snap.FFArgs, cfg.VideoPath),
	}
	cs, err := plan.Build()
	if err != nil {
		return nil, nil, err
	}
	return cs, snap, nil
}

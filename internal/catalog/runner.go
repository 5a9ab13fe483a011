package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hermit-crab/ffcutter/internal/ffmpeg"
)

// commandRunner is the slice of the executor the job runner needs.
type commandRunner interface {
	RunAll(ctx context.Context, commands [][]string, onStart func(i, n int, argv []string)) error
}

// Runner polls for pending cut jobs and executes them one at a time.
// Cuts are disk and CPU heavy, there is no reason to run two at once.
type Runner struct {
	repo         Repository
	exec         commandRunner
	ffmpegBinary string
	tmpDir       string
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(repo Repository, exec commandRunner, ffmpegBinary, tmpDir string, logger *slog.Logger) *Runner {
	return &Runner{
		repo:         repo,
		exec:         exec,
		ffmpegBinary: ffmpegBinary,
		tmpDir:       tmpDir,
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("cut runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("cut runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("cut runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("cut runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case JobTypeCut:
		r.processCutJob(ctx, job)
	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) processCutJob(ctx context.Context, job *Job) {
	video, err := r.repo.GetVideo(ctx, job.VideoID)
	if err != nil || video == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "video not found")
		return
	}

	payload, err := DecodePayload(job.Payload)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("bad payload: %v", err))
		return
	}

	plan := &ffmpeg.Plan{
		Binary:   r.ffmpegBinary,
		Input:    video.Path,
		Segments: payload.Segments,
		Encode:   payload.Encode,
		TwoPass:  payload.TwoPass,
		TmpDir:   r.tmpDir,
		Args:     ffmpeg.ParseArgsBlock(payload.FFArgs, video.Path),
	}
	commands, err := plan.Build()
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}
	if err := commands.WriteListFile(); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	err = r.exec.RunAll(ctx, commands.Commands, func(i, n int, argv []string) {
		r.repo.UpdateJobProgress(ctx, job.ID, i*100/n)
		r.logger.Info("cut step", "job_id", job.ID, "step", i+1, "total", n)
	})
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		r.logger.Error("cut job failed", "job_id", job.ID, "error", err)
		return
	}

	r.repo.UpdateJobProgress(ctx, job.ID, 100)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("cut job completed", "job_id", job.ID, "output", commands.OutFile)
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}

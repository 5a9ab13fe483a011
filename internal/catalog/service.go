package catalog

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const fingerprintSize = 64 * 1024

// AuthTokenKey is the config row holding the control API bearer token.
const AuthTokenKey = "api_token"

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RegisterVideo records (or refreshes) the opened file in the catalog.
// The fingerprint hashes only the first 64 KiB; enough to notice the file
// was replaced without reading gigabytes on every start.
func (s *Service) RegisterVideo(ctx context.Context, path, saveFile string, duration float64) (*Video, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("video does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", absPath)
	}
	if !IsVideoFile(absPath) && s.logger != nil {
		s.logger.Warn("unrecognized video extension", "file", filepath.Base(absPath))
	}

	fingerprint, err := computeFingerprint(absPath)
	if err != nil {
		return nil, err
	}

	prev, err := s.repo.GetVideoByPath(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("register video: %w", err)
	}
	if prev != nil {
		if prev.Fingerprint != "" && prev.Fingerprint != fingerprint && s.logger != nil {
			s.logger.Warn("video content changed since last open", "file", filepath.Base(absPath))
		}
		// Carry the probed duration across runs as long as the file itself
		// did not change.
		if duration == 0 && prev.Fingerprint == fingerprint {
			duration = prev.Duration
		}
	}

	video := &Video{
		Path:        absPath,
		Filename:    filepath.Base(absPath),
		Size:        info.Size(),
		Mtime:       info.ModTime(),
		Fingerprint: fingerprint,
		Duration:    duration,
		SaveFile:    saveFile,
	}
	if err := s.repo.UpsertVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("register video: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("video registered", "video_id", video.ID, "file", video.Filename, "size", video.Size)
	}
	return video, nil
}

// UpdateDuration backfills the duration once the prober or player reports it.
func (s *Service) UpdateDuration(ctx context.Context, video *Video, duration float64) error {
	video.Duration = duration
	return s.repo.UpsertVideo(ctx, video)
}

// EnqueueCut creates a pending cut job for the runner to pick up.
func (s *Service) EnqueueCut(ctx context.Context, videoID int64, payload *CutPayload) (*Job, error) {
	if len(payload.Segments) == 0 {
		return nil, fmt.Errorf("nothing to cut")
	}

	encoded, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	job := &Job{
		Type:    JobTypeCut,
		Status:  JobStatusPending,
		VideoID: videoID,
		Payload: encoded,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue cut: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("cut job created", "job_id", job.ID, "video_id", videoID, "segments", len(payload.Segments))
	}
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id int64) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) GetVideo(ctx context.Context, id int64) (*Video, error) {
	return s.repo.GetVideo(ctx, id)
}

// EnsureAuthToken returns the persistent API token, generating one on
// first run.
func (s *Service) EnsureAuthToken(ctx context.Context) (string, error) {
	token, err := s.repo.GetConfig(ctx, AuthTokenKey)
	if err != nil {
		return "", fmt.Errorf("read auth token: %w", err)
	}
	if token != "" {
		return token, nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	token = hex.EncodeToString(b)

	if err := s.repo.SetConfig(ctx, AuthTokenKey, token); err != nil {
		return "", fmt.Errorf("store auth token: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("generated api auth token")
	}
	return token, nil
}

func computeFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, io.LimitReader(f, fingerprintSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Package catalog tracks opened videos and their cut jobs in sqlite, so
// finished and failed cuts survive restarts and stay inspectable.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hermit-crab/ffcutter/internal/cutlist"
)

type Video struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	Mtime       time.Time `json:"mtime"`
	Fingerprint string    `json:"fingerprint"`
	Duration    float64   `json:"duration"`
	SaveFile    string    `json:"save_file,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	JobTypeCut = "cut"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	VideoID   int64     `json:"video_id"`
	Payload   string    `json:"payload,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CutPayload is what a cut job carries: the final kept segments (already
// inverted and snapped) plus the encode settings. Serialized as JSON into
// the jobs.payload column.
type CutPayload struct {
	Segments []cutlist.Segment `json:"segments"`
	Encode   bool              `json:"encode"`
	TwoPass  bool              `json:"2-pass"`
	FFArgs   string            `json:"ffargs"`
}

func EncodePayload(p *CutPayload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode cut payload: %w", err)
	}
	return string(data), nil
}

func DecodePayload(s string) (*CutPayload, error) {
	var p CutPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("decode cut payload: %w", err)
	}
	return &p, nil
}

var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".ts":   true,
	".m4v":  true,
	".flv":  true,
	".wmv":  true,
}

func IsVideoFile(filename string) bool {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return false
	}
	return VideoExtensions[strings.ToLower(filename[idx:])]
}

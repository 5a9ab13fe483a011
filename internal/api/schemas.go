package api

import (
	"time"

	"github.com/hermit-crab/ffcutter/internal/catalog"
	"github.com/hermit-crab/ffcutter/internal/probe"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	Video   string `json:"video"`
}

type StatusResponse struct {
	State       string       `json:"state"`
	LastError   string       `json:"last_error,omitempty"`
	Mode        string       `json:"mode"`
	Segments    int          `json:"segments"`
	Anchor      *float64     `json:"anchor,omitempty"`
	Position    *float64     `json:"position,omitempty"`
	Duration    *float64     `json:"duration,omitempty"`
	IndexReady  bool         `json:"index_ready"`
	JobsRunning int          `json:"jobs_running"`
	ActiveJob   *JobResponse `json:"active_job,omitempty"`
}

type AnchorRequest struct {
	// Position defaults to the current player position when omitted.
	Position *float64 `json:"position,omitempty"`
}

type AnchorResponse struct {
	Move     string   `json:"move,omitempty"`
	Deleted  bool     `json:"deleted,omitempty"`
	Anchor   *float64 `json:"anchor,omitempty"`
	Segments int      `json:"segments"`
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

type CommandsResponse struct {
	Commands [][]string `json:"commands"`
	Preview  string     `json:"preview"`
	OutFile  string     `json:"out_file"`
}

type CutResponse struct {
	JobID int64 `json:"job_id"`
}

type JobResponse struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	VideoID   int64  `json:"video_id"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type VideoResponse struct {
	ID       int64   `json:"id"`
	Path     string  `json:"path"`
	Filename string  `json:"filename"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration"`
	SaveFile string  `json:"save_file,omitempty"`
	OpenedAt string  `json:"opened_at"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

type VideoInfoResponse struct {
	Path       string  `json:"path"`
	Format     string  `json:"format"`
	Duration   float64 `json:"duration"`
	Size       int64   `json:"size"`
	BitRate    int64   `json:"bit_rate,omitempty"`
	Codec      string  `json:"codec,omitempty"`
	Resolution string  `json:"resolution,omitempty"`
	FrameRate  string  `json:"frame_rate,omitempty"`
	AudioCount int     `json:"audio_streams"`
}

type SeekRequest struct {
	Position float64 `json:"position"`
}

type FrameStepRequest struct {
	Backwards bool `json:"backwards"`
}

type JumpRequest struct {
	Backwards bool `json:"backwards"`
}

type PlayerResponse struct {
	Position *float64 `json:"position,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JobToResponse(j *catalog.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		VideoID:   j.VideoID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func VideoToResponse(v *catalog.Video) VideoResponse {
	return VideoResponse{
		ID:       v.ID,
		Path:     v.Path,
		Filename: v.Filename,
		Size:     v.Size,
		Duration: v.Duration,
		SaveFile: v.SaveFile,
		OpenedAt: v.UpdatedAt.Format(time.RFC3339),
	}
}

func ProbeToResponse(path string, r *probe.Result) VideoInfoResponse {
	resp := VideoInfoResponse{
		Path:       path,
		Format:     r.Format.FormatName,
		Duration:   r.Format.Duration,
		Size:       r.Format.Size,
		BitRate:    r.Format.BitRate,
		AudioCount: len(r.AudioStreams),
	}
	if v := r.PrimaryVideo; v != nil {
		resp.Codec = v.Codec
		resp.Resolution = r.Resolution()
		resp.FrameRate = v.AvgFrameRate
	}
	return resp
}

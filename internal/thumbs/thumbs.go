// Package thumbs extracts single-frame preview thumbnails from the video.
package thumbs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xfrr/goffmpeg/transcoder"

	"github.com/hermit-crab/ffcutter/internal/cutlist"
)

const (
	maxWidth  = 480
	maxHeight = 360
)

// Thumbnail is one extracted frame, encoded as PNG.
type Thumbnail struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
}

// Generator extracts thumbnails at arbitrary timestamps.
type Generator interface {
	Generate(video string, at float64, videoWidth, videoHeight int) (*Thumbnail, error)
}

// FFmpegGenerator implements Generator on top of the goffmpeg transcoder.
type FFmpegGenerator struct {
	log *slog.Logger
}

func NewFFmpegGenerator(log *slog.Logger) *FFmpegGenerator {
	return &FFmpegGenerator{log: log}
}

// Generate seeks to the timestamp and renders one scaled PNG frame.
func (g *FFmpegGenerator) Generate(video string, at float64, videoWidth, videoHeight int) (*Thumbnail, error) {
	tempDir, err := os.MkdirTemp("", "ffcutter_thumb_")
	if err != nil {
		return nil, fmt.Errorf("create thumb dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	outFile := filepath.Join(tempDir, "thumb.png")
	width, height := fitDimensions(videoWidth, videoHeight)

	trans := new(transcoder.Transcoder)
	if err := trans.Initialize(video, outFile); err != nil {
		return nil, fmt.Errorf("initialize transcoder: %w", err)
	}

	trans.MediaFile().SetSeekTime(cutlist.FormatTime(at, true))
	trans.MediaFile().SetVideoFilter(fmt.Sprintf("scale=%d:%d", width, height))
	trans.MediaFile().SetVideoCodec("png")
	trans.MediaFile().SetSkipAudio(true)
	trans.MediaFile().SetOutputFormat("image2")
	trans.MediaFile().SetVideoBitRate("1")

	done := trans.Run(false)
	if err := <-done; err != nil {
		return nil, fmt.Errorf("extract thumbnail: %w", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}

	g.log.Debug("thumbnail generated", "at", at, "size", len(data), "dims", fmt.Sprintf("%dx%d", width, height))
	return &Thumbnail{Data: data, Width: width, Height: height, MimeType: "image/png"}, nil
}

// fitDimensions scales the source size into the thumbnail box preserving
// aspect ratio. Dimensions are forced even, some codecs require it.
func fitDimensions(videoWidth, videoHeight int) (int, int) {
	if videoWidth <= 0 || videoHeight <= 0 {
		return maxWidth, maxHeight
	}

	aspect := float64(videoWidth) / float64(videoHeight)
	var w, h int
	if float64(maxWidth)/aspect <= float64(maxHeight) {
		w = maxWidth
		h = int(float64(maxWidth) / aspect)
	} else {
		h = maxHeight
		w = int(float64(maxHeight) * aspect)
	}
	return (w / 2) * 2, (h / 2) * 2
}

package probe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ptsMergeWindow collapses packet timestamps closer together than this.
// Containers occasionally emit split packets a millisecond or two apart
// that do not correspond to separate displayed frames.
const ptsMergeWindow = 0.002

// Index holds every frame presentation timestamp of a video plus the
// subset that are keyframes. Seeking and segment snapping work off it.
type Index struct {
	PTS       []float64
	Keyframes []float64
}

// First returns the first frame timestamp, or 0 for an empty index.
func (ix *Index) First() float64 {
	if len(ix.PTS) == 0 {
		return 0
	}
	return ix.PTS[0]
}

// Last returns the last frame timestamp, or 0 for an empty index.
func (ix *Index) Last() float64 {
	if len(ix.PTS) == 0 {
		return 0
	}
	return ix.PTS[len(ix.PTS)-1]
}

// Indexer builds and caches frame indexes. Building reads every packet of
// the file, so results are cached in CacheDir keyed by file name and size.
type Indexer struct {
	Binary   string
	CacheDir string
	Log      *slog.Logger
}

func NewIndexer(binary, cacheDir string, log *slog.Logger) *Indexer {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Indexer{Binary: binary, CacheDir: cacheDir, Log: log}
}

// Load returns the frame index for video, reading the cache when present
// and probing the file otherwise. A fresh index is written back to the
// cache before returning.
func (x *Indexer) Load(ctx context.Context, video string) (*Index, error) {
	cachePath, err := x.cachePath(video)
	if err != nil {
		return nil, err
	}

	if ix, err := readCache(cachePath); err == nil {
		x.Log.Info("frame index loaded from cache", "path", cachePath, "frames", len(ix.PTS))
		return ix, nil
	}

	x.Log.Info("building frame index", "video", filepath.Base(video))
	ix, err := x.fromPackets(ctx, video)
	if err != nil || len(ix.PTS) == 0 {
		// Some containers report no usable packet timestamps. Decoding
		// frame headers is much slower but always works.
		x.Log.Info("packet timestamps unusable, reading frames", "video", filepath.Base(video))
		ix, err = x.fromFrames(ctx, video)
		if err != nil {
			return nil, err
		}
	}
	if len(ix.PTS) == 0 {
		return nil, fmt.Errorf("no frame timestamps found in %s", video)
	}

	if err := writeCache(cachePath, ix); err != nil {
		x.Log.Warn("frame index cache write failed", "path", cachePath, "error", err)
	}
	return ix, nil
}

func (x *Indexer) cachePath(video string) (string, error) {
	st, err := os.Stat(video)
	if err != nil {
		return "", fmt.Errorf("stat video: %w", err)
	}
	name := fmt.Sprintf("%s.%d.frames", filepath.Base(video), st.Size())
	return filepath.Join(x.CacheDir, name), nil
}

// The cache file is a two-element JSON array [pts, keyframes].
func readCache(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw [2][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse frame index cache %s: %w", path, err)
	}
	return &Index{PTS: raw[0], Keyframes: raw[1]}, nil
}

func writeCache(path string, ix *Index) error {
	data, err := json.Marshal([2][]float64{ix.PTS, ix.Keyframes})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// fromPackets builds the index from packet metadata, which is fast because
// nothing gets decoded.
func (x *Indexer) fromPackets(ctx context.Context, video string) (*Index, error) {
	cmd := exec.CommandContext(ctx, x.Binary,
		"-show_packets",
		"-show_entries", "packet=pts_time,dts_time,flags",
		"-select_streams", "v",
		"-v", "error",
		video,
	)
	var ix *Index
	err := x.scan(cmd, func(r io.Reader) {
		ix = parsePackets(r)
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// fromFrames builds the index by decoding frame headers. Slow path.
func (x *Indexer) fromFrames(ctx context.Context, video string) (*Index, error) {
	cmd := exec.CommandContext(ctx, x.Binary,
		"-show_frames",
		"-show_entries", "frame=best_effort_timestamp_time,pict_type",
		"-select_streams", "v",
		"-v", "error",
		video,
	)
	var ix *Index
	err := x.scan(cmd, func(r io.Reader) {
		ix = parseFrames(r)
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

func (x *Indexer) scan(cmd *exec.Cmd, parse func(io.Reader)) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffprobe: %w", err)
	}
	parse(stdout)
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// parsePackets reads ffprobe -show_packets flat output. A flags line
// containing K marks the most recently seen packet as a keyframe. DTS
// values stand in where PTS is missing.
func parsePackets(r io.Reader) *Index {
	var pts, dts, keys []float64

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "flags=") && strings.Contains(line, "K"):
			if len(pts) > 0 {
				keys = append(keys, pts[len(pts)-1])
			} else if len(dts) > 0 {
				keys = append(keys, dts[len(dts)-1])
			}
		case strings.HasPrefix(line, "pts_time="):
			if v, err := strconv.ParseFloat(line[len("pts_time="):], 64); err == nil && v >= 0 {
				pts = append(pts, v)
			}
		case strings.HasPrefix(line, "dts_time="):
			if v, err := strconv.ParseFloat(line[len("dts_time="):], 64); err == nil && v >= 0 {
				dts = append(dts, v)
			}
		}
	}

	merged := sortedUnique(append(pts, dts...))
	keys = sortedUnique(keys)
	merged, keys = mergeClose(merged, keys, ptsMergeWindow)
	return &Index{PTS: merged, Keyframes: keys}
}

// parseFrames reads ffprobe -show_frames flat output. pict_type=I lines
// mark the preceding timestamp as a keyframe.
func parseFrames(r io.Reader) *Index {
	var pts, keys []float64

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "best_effort_timestamp_time="):
			if v, err := strconv.ParseFloat(line[len("best_effort_timestamp_time="):], 64); err == nil && v >= 0 {
				pts = append(pts, v)
			}
		case line == "pict_type=I":
			if len(pts) > 0 {
				keys = append(keys, pts[len(pts)-1])
			}
		}
	}

	pts = sortedUnique(pts)
	keys = sortedUnique(keys)
	return &Index{PTS: pts, Keyframes: keys}
}

func sortedUnique(in []float64) []float64 {
	if len(in) == 0 {
		return nil
	}
	sort.Float64s(in)
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// mergeClose collapses sorted timestamps closer together than eps, keeping
// the later value of each cluster. Keyframe timestamps that were collapsed
// away are remapped onto the kept value.
func mergeClose(pts, keys []float64, eps float64) ([]float64, []float64) {
	if len(pts) == 0 {
		return pts, keys
	}

	remap := make(map[float64]float64)
	out := make([]float64, 0, len(pts))
	for _, t := range pts {
		for len(out) > 0 && t-out[len(out)-1] <= eps {
			remap[out[len(out)-1]] = t
			out = out[:len(out)-1]
		}
		out = append(out, t)
	}
	if len(remap) == 0 {
		return out, keys
	}

	mapped := make([]float64, 0, len(keys))
	for _, k := range keys {
		for {
			next, ok := remap[k]
			if !ok {
				break
			}
			k = next
		}
		mapped = append(mapped, k)
	}
	return out, sortedUnique(mapped)
}

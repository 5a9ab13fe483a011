// Package cutlist maintains the ordered list of cut segments for a video
// and the pending anchor the user is editing with. Positions are seconds
// from the start of the file, kept at millisecond precision.
package cutlist

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Segment is a half-open user selection [Start, End) in seconds.
type Segment struct {
	Start float64
	End   float64
}

// MarshalJSON writes the segment as a [start, end] pair, the on-disk
// save-file representation.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{s.Start, s.End})
}

// UnmarshalJSON reads the [start, end] pair representation.
func (s *Segment) UnmarshalJSON(b []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("segment must be a [start, end] pair: %w", err)
	}
	s.Start, s.End = pair[0], pair[1]
	return nil
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Mode selects whether segments mark content to keep or to remove.
type Mode string

const (
	ModeKeep   Mode = "keep"
	ModeRemove Mode = "remove"
)

// List is an ordered, non-overlapping sequence of segments plus at most one
// pending anchor. The zero value is ready to use.
type List struct {
	segments []Segment
	anchor   *float64
}

// Segments returns a copy of the ordered segment sequence.
func (l *List) Segments() []Segment {
	out := make([]Segment, len(l.segments))
	copy(out, l.segments)
	return out
}

// Len returns the number of complete segments.
func (l *List) Len() int {
	return len(l.segments)
}

// Anchor returns the pending anchor position, if any.
func (l *List) Anchor() (float64, bool) {
	if l.anchor == nil {
		return 0, false
	}
	return *l.anchor, true
}

// SetAnchor arms or clears the pending anchor directly. Used when
// restoring a session.
func (l *List) SetAnchor(pos *float64) {
	if pos == nil {
		l.anchor = nil
		return
	}
	v := Round(*pos)
	l.anchor = &v
}

// SetSegments replaces the segment sequence. Segments are rounded, sorted
// by start and must not overlap.
func (l *List) SetSegments(segs []Segment) error {
	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i] = Segment{Start: Round(s.Start), End: Round(s.End)}
		if out[i].Start >= out[i].End {
			return fmt.Errorf("segment %d: start %v >= end %v", i, s.Start, s.End)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	for i := 1; i < len(out); i++ {
		if out[i].Start < out[i-1].End {
			return fmt.Errorf("segments %d and %d overlap", i-1, i)
		}
	}
	l.segments = out
	return nil
}

// Validate checks every segment against the video duration. It must pass
// before any encoder invocation. A non-positive duration skips the upper
// bound check (duration unknown until the player or prober reports it).
func (l *List) Validate(duration float64) error {
	for i, s := range l.segments {
		if s.Start >= s.End {
			return fmt.Errorf("segment %d: start %v >= end %v", i, s.Start, s.End)
		}
		if s.Start < 0 {
			return fmt.Errorf("segment %d: start %v < 0", i, s.Start)
		}
		if duration > 0 && s.End > duration {
			return fmt.Errorf("segment %d: end %v past duration %v", i, s.End, duration)
		}
	}
	return nil
}

// Round truncates a position to millisecond precision, matching what is
// written into the save file and passed to ffmpeg.
func Round(t float64) float64 {
	return math.Round(t*1000) / 1000
}

// closest returns the element of pts nearest to target. When maxDiff > 0,
// elements further away than maxDiff are ignored. ok is false when nothing
// qualifies.
func closest(target float64, pts []float64, maxDiff float64) (float64, bool) {
	best := 0.0
	bestDiff := math.Inf(1)
	for _, t := range pts {
		d := math.Abs(t - target)
		if d < bestDiff {
			best = t
			bestDiff = d
		}
	}
	if math.IsInf(bestDiff, 1) {
		return 0, false
	}
	if maxDiff > 0 && bestDiff >= maxDiff {
		return 0, false
	}
	return best, true
}

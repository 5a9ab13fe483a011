package cutlist

// Invert returns the complement of the segment list over [0, duration]:
// the pieces that remain when the listed segments are removed. A head piece
// starting on the very first frame and a tail piece shorter than one frame
// are dropped, so "remove from the start" and "remove to the end" behave as
// expected. pts may be nil when no frame index is available.
func (l *List) Invert(duration, frameDur float64, pts []float64) []Segment {
	var out []Segment
	prev := 0.0

	for i, s := range l.segments {
		firstFrame := s.Start == 0
		if !firstFrame && len(pts) > 0 {
			if c, ok := closest(s.Start, pts, 0); ok && c == pts[0] {
				firstFrame = true
			}
		}
		if !firstFrame && s.Start > prev {
			out = append(out, Segment{Start: prev, End: s.Start})
		}

		prev = s.End

		if i == len(l.segments)-1 {
			lastFrame := duration-s.End < frameDur
			if !lastFrame && len(pts) > 0 {
				if c, ok := closest(s.End, pts, 0); ok && c == pts[len(pts)-1] {
					lastFrame = true
				}
			}
			if !lastFrame {
				out = append(out, Segment{Start: s.End, End: duration})
			}
		}
	}
	return out
}

// Snap adjusts segment boundaries for the encoder: the trailing boundary of
// a kept piece (or the leading boundary of a removed one) is padded by one
// frame so the boundary frame itself stays on the intended side, then both
// ends are pulled onto the nearest known frame timestamp when one is within
// a frame's reach. Results are rounded to millisecond precision.
func Snap(segs []Segment, pts []float64, frameDur float64, keep bool) []Segment {
	out := make([]Segment, len(segs))
	for i, s := range segs {
		a, b := s.Start, s.End

		if keep {
			b += frameDur
		} else {
			a += frameDur
		}

		if c, ok := closest(a, pts, frameDur); ok {
			a = c
		}
		if c, ok := closest(b, pts, frameDur); ok {
			b = c
		}

		out[i] = Segment{Start: Round(a), End: Round(b)}
	}
	return out
}

package cutlist

import "math"

// Move identifies which editing rule a PutAnchor call applied. Mostly
// useful for logging and tests.
type Move int

const (
	MoveArm    Move = iota // first anchor armed, no segment change
	MoveInsert             // new segment on a clean range
	MoveSplit              // pair inside one segment, segment split
	MoveExtend             // one end inside a segment, segment grown
	MoveJoin               // ends in two segments, segments joined
)

func (m Move) String() string {
	switch m {
	case MoveArm:
		return "arm"
	case MoveInsert:
		return "insert"
	case MoveSplit:
		return "split"
	case MoveExtend:
		return "extend"
	case MoveJoin:
		return "join"
	default:
		return "unknown"
	}
}

// PutAnchor records a boundary at pos. The first call arms the pending
// anchor; the second call pairs it with pos and updates the segment list:
//
//   - both ends on a clean range: a new segment swallowing any segments it
//     covers (MoveInsert)
//   - both ends inside the same segment: that segment is split, or trimmed
//     when an end coincides with its boundary (MoveSplit)
//   - exactly one end inside a segment: the segment grows to the free end,
//     swallowing covered segments (MoveExtend)
//   - ends inside two different segments: everything between them becomes
//     one segment (MoveJoin)
func (l *List) PutAnchor(pos float64) Move {
	pos = Round(pos)

	if l.anchor == nil {
		l.anchor = &pos
		return MoveArm
	}

	aa, bb := *l.anchor, pos
	if aa > bb {
		aa, bb = bb, aa
	}
	l.anchor = nil

	if aa == bb {
		// Same position twice: treat as re-arming.
		l.anchor = &pos
		return MoveArm
	}

	aai, bbi := -1, -1
	for i, s := range l.segments {
		if s.Start <= aa && aa <= s.End {
			aai = i
		}
		if s.Start <= bb && bb <= s.End {
			bbi = i
		}
	}

	switch {
	case aai == -1 && bbi == -1:
		l.removeCovered(aa, bb)
		l.insert(Segment{Start: aa, End: bb})
		return MoveInsert

	case aai > -1 && aai == bbi:
		seg := l.segments[aai]
		l.removeAt(aai)
		if seg.Start == aa {
			l.insert(Segment{Start: bb, End: seg.End})
		} else if seg.End == bb {
			l.insert(Segment{Start: seg.Start, End: aa})
		} else {
			l.insert(Segment{Start: seg.Start, End: aa})
			l.insert(Segment{Start: bb, End: seg.End})
		}
		return MoveSplit

	case (aai > -1) != (bbi > -1):
		if aai > -1 {
			aa = l.segments[aai].Start
			l.removeAt(aai)
		} else {
			bb = l.segments[bbi].End
			l.removeAt(bbi)
		}
		l.removeCovered(aa, bb)
		l.insert(Segment{Start: aa, End: bb})
		return MoveExtend

	default:
		start := l.segments[aai].Start
		end := l.segments[bbi].End
		l.removeCovered(start, end)
		l.insert(Segment{Start: start, End: end})
		return MoveJoin
	}
}

// DeleteAnchor removes the boundary closest to pos. When the pending anchor
// is closest it is simply cleared; otherwise the segment owning the closest
// boundary is dissolved and its opposite end becomes the pending anchor, so
// a misplaced boundary can be re-put without retyping the other one.
func (l *List) DeleteAnchor(pos float64) bool {
	c, ok := l.Closest(pos)
	if !ok {
		return false
	}

	if l.anchor != nil && *l.anchor == c {
		l.anchor = nil
		return true
	}

	for i, s := range l.segments {
		if s.Start == c {
			end := s.End
			l.removeAt(i)
			l.anchor = &end
			return true
		}
		if s.End == c {
			start := s.Start
			l.removeAt(i)
			l.anchor = &start
			return true
		}
	}
	return false
}

// Closest returns the anchor or segment boundary nearest to pos.
func (l *List) Closest(pos float64) (float64, bool) {
	best := 0.0
	bestDiff := math.Inf(1)

	consider := func(t float64) {
		if d := math.Abs(t - pos); d < bestDiff {
			best = t
			bestDiff = d
		}
	}

	for _, s := range l.segments {
		consider(s.Start)
		consider(s.End)
	}
	if l.anchor != nil {
		consider(*l.anchor)
	}

	if math.IsInf(bestDiff, 1) {
		return 0, false
	}
	return best, true
}

// Boundaries returns every segment boundary plus the pending anchor,
// sorted ascending. Used for anchor-to-anchor jumps in the preview.
func (l *List) Boundaries() []float64 {
	out := make([]float64, 0, len(l.segments)*2+1)
	for _, s := range l.segments {
		out = append(out, s.Start, s.End)
	}
	if l.anchor != nil {
		out = append(out, *l.anchor)
		for i := len(out) - 1; i > 0 && out[i] < out[i-1]; i-- {
			out[i], out[i-1] = out[i-1], out[i]
		}
	}
	return out
}

// removeCovered drops every segment fully inside [aa, bb].
func (l *List) removeCovered(aa, bb float64) {
	kept := l.segments[:0]
	for _, s := range l.segments {
		if !(s.Start >= aa && s.End <= bb) {
			kept = append(kept, s)
		}
	}
	l.segments = kept
}

func (l *List) removeAt(i int) {
	l.segments = append(l.segments[:i], l.segments[i+1:]...)
}

// insert places seg keeping the list sorted by start.
func (l *List) insert(seg Segment) {
	i := 0
	for i < len(l.segments) && l.segments[i].Start < seg.Start {
		i++
	}
	l.segments = append(l.segments, Segment{})
	copy(l.segments[i+1:], l.segments[i:])
	l.segments[i] = seg
}

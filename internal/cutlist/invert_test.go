package cutlist

import (
	"reflect"
	"testing"
)

func TestInvert_MiddleSegment(t *testing.T) {
	l := listOf(t, 10, 20)

	got := l.Invert(60, 0.04, nil)
	want := segs(0, 10, 20, 60)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Invert() = %v, want %v", got, want)
	}
}

func TestInvert_DropsHeadOnFirstFrame(t *testing.T) {
	l := listOf(t, 0, 10)

	got := l.Invert(60, 0.04, nil)
	want := segs(10, 60)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Invert() = %v, want %v", got, want)
	}
}

func TestInvert_DropsTailWithinFrame(t *testing.T) {
	l := listOf(t, 50, 59.99)

	got := l.Invert(60, 0.04, nil)
	want := segs(0, 50)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Invert() = %v, want %v", got, want)
	}
}

func TestInvert_UsesFrameIndexForEdges(t *testing.T) {
	pts := []float64{0.02, 0.06, 0.1, 59.94}
	l := listOf(t, 0.02, 10, 50, 59.94)

	// First segment starts on the first frame pts, last ends on the last
	// frame pts: neither head nor tail piece survives.
	got := l.Invert(60, 0.04, pts)
	want := segs(10, 50)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Invert() = %v, want %v", got, want)
	}
}

func TestInvert_MultipleSegments(t *testing.T) {
	l := listOf(t, 10, 20, 30, 40)

	got := l.Invert(60, 0.04, nil)
	want := segs(0, 10, 20, 30, 40, 60)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Invert() = %v, want %v", got, want)
	}
}

func TestSnap_PadsKeptBoundary(t *testing.T) {
	in := segs(10, 20)

	got := Snap(in, nil, 0.04, true)
	want := segs(10, 20.04)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Snap(keep) = %v, want %v", got, want)
	}

	got = Snap(in, nil, 0.04, false)
	want = segs(10.04, 20)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Snap(remove) = %v, want %v", got, want)
	}
}

func TestSnap_PullsOntoFrameTimestamps(t *testing.T) {
	pts := []float64{9.97, 10.02, 19.98, 20.02, 20.06}
	in := segs(10, 20)

	got := Snap(in, pts, 0.04, true)
	// 10 -> 10.02 (within one frame), 20.04 -> 20.02.
	want := segs(10.02, 20.02)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Snap() = %v, want %v", got, want)
	}
}

func TestSnap_RoundsToMilliseconds(t *testing.T) {
	in := []Segment{{Start: 1.0 / 3.0, End: 2.0 / 3.0}}

	got := Snap(in, nil, 0, true)
	if got[0].Start != 0.333 || got[0].End != 0.667 {
		t.Fatalf("Snap() = %v, want [0.333, 0.667]", got)
	}
}

package session

import (
	"path/filepath"
	"testing"

	"github.com/hermit-crab/ffcutter/internal/cutlist"
)

func testManager(t *testing.T) (*Manager, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "clip.mp4.ffcutter"))
	m, err := NewManager(store)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, store
}

func TestManagerPersistsEveryMutation(t *testing.T) {
	m, store := testManager(t)

	if _, err := m.PutAnchor(3); err != nil {
		t.Fatalf("PutAnchor: %v", err)
	}
	if !store.Exists() {
		t.Fatal("save file not written after first mutation")
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Anchor == nil || *loaded.Anchor != 3 {
		t.Fatalf("anchor = %v", loaded.Anchor)
	}

	if _, err := m.PutAnchor(7); err != nil {
		t.Fatalf("second PutAnchor: %v", err)
	}
	loaded, _ = store.Load()
	if len(loaded.Segments) != 1 || loaded.Segments[0] != (cutlist.Segment{Start: 3, End: 7}) {
		t.Fatalf("segments = %v", loaded.Segments)
	}
	if loaded.Anchor != nil {
		t.Fatal("anchor should be cleared after pairing")
	}
}

func TestManagerDeleteAnchor(t *testing.T) {
	m, store := testManager(t)
	m.PutAnchor(3)
	m.PutAnchor(7)

	ok, err := m.DeleteAnchor(6.5)
	if err != nil || !ok {
		t.Fatalf("DeleteAnchor = %v, %v", ok, err)
	}

	loaded, _ := store.Load()
	if len(loaded.Segments) != 0 {
		t.Fatalf("segments = %v", loaded.Segments)
	}
	// The opposite end is re-armed for a corrected placement.
	if loaded.Anchor == nil || *loaded.Anchor != 3 {
		t.Fatalf("anchor = %v", loaded.Anchor)
	}
}

func TestManagerReplace(t *testing.T) {
	m, store := testManager(t)

	next := Default()
	next.Mode = cutlist.ModeKeep
	next.Segments = []cutlist.Segment{{Start: 1, End: 2}}
	next.Encode = true
	if err := m.Replace(next); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	loaded, _ := store.Load()
	if loaded.Mode != cutlist.ModeKeep || !loaded.Encode || len(loaded.Segments) != 1 {
		t.Fatalf("state = %+v", loaded)
	}

	bad := Default()
	bad.Segments = []cutlist.Segment{{Start: 5, End: 5}}
	if err := m.Replace(bad); err == nil {
		t.Fatal("degenerate segment accepted")
	}
	bad.Segments = nil
	bad.Mode = "shuffle"
	if err := m.Replace(bad); err == nil {
		t.Fatal("unknown mode accepted")
	}
}

func TestManagerCutSegments_RemoveInverts(t *testing.T) {
	m, _ := testManager(t)
	m.PutAnchor(10)
	m.PutAnchor(20)

	segs, err := m.CutSegments(60, 0, nil)
	if err != nil {
		t.Fatalf("CutSegments: %v", err)
	}
	want := []cutlist.Segment{{Start: 0, End: 10}, {Start: 20, End: 60}}
	if len(segs) != 2 || segs[0] != want[0] || segs[1] != want[1] {
		t.Fatalf("segs = %v, want %v", segs, want)
	}
}

func TestManagerCutSegments_KeepUsesListDirectly(t *testing.T) {
	m, _ := testManager(t)
	m.SetMode(cutlist.ModeKeep)
	m.PutAnchor(10)
	m.PutAnchor(20)

	segs, err := m.CutSegments(60, 0, nil)
	if err != nil {
		t.Fatalf("CutSegments: %v", err)
	}
	if len(segs) != 1 || segs[0] != (cutlist.Segment{Start: 10, End: 20}) {
		t.Fatalf("segs = %v", segs)
	}
}

func TestManagerCutSegments_SnapsToFrames(t *testing.T) {
	m, _ := testManager(t)
	m.SetMode(cutlist.ModeKeep)
	m.PutAnchor(10.01)
	m.PutAnchor(19.99)

	pts := []float64{9.98, 10.02, 19.98, 20.02, 20.06}
	segs, err := m.CutSegments(60, 0.04, pts)
	if err != nil {
		t.Fatalf("CutSegments: %v", err)
	}
	// Kept end is padded by one frame before snapping, so the boundary
	// frame itself survives the cut.
	if len(segs) != 1 || segs[0] != (cutlist.Segment{Start: 10.02, End: 20.02}) {
		t.Fatalf("segs = %v", segs)
	}
}

func TestManagerCutSegments_Errors(t *testing.T) {
	m, _ := testManager(t)
	if _, err := m.CutSegments(60, 0, nil); err == nil {
		t.Fatal("empty list accepted")
	}

	m.PutAnchor(10)
	m.PutAnchor(70)
	if _, err := m.CutSegments(60, 0, nil); err == nil {
		t.Fatal("segment past duration accepted")
	}
}

func TestManagerSnapshotIsACopy(t *testing.T) {
	m, _ := testManager(t)
	m.PutAnchor(1)
	m.PutAnchor(2)

	snap := m.Snapshot()
	snap.Segments[0].Start = 42

	if got := m.Snapshot().Segments[0].Start; got != 1 {
		t.Fatalf("snapshot mutation leaked into manager: %v", got)
	}
}

func TestManagerBoundaries(t *testing.T) {
	m, _ := testManager(t)

	m.PutAnchor(10)
	m.PutAnchor(20)
	m.PutAnchor(40)

	want := []float64{10, 20, 40}
	got := m.Boundaries()
	if len(got) != len(want) {
		t.Fatalf("Boundaries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Boundaries() = %v, want %v", got, want)
		}
	}

	if ok, err := m.DeleteAnchor(40); err != nil || !ok {
		t.Fatalf("DeleteAnchor = %v, %v", ok, err)
	}
	if got := m.Boundaries(); len(got) != 2 {
		t.Fatalf("Boundaries() after delete = %v", got)
	}
}

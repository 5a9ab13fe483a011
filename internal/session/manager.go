package session

import (
	"fmt"
	"sync"

	"github.com/hermit-crab/ffcutter/internal/cutlist"
)

// Manager owns the live editing state of one session: the cutlist being
// edited plus the non-list fields of the save file. Every mutation is
// persisted to the store before it returns, so a crash at any point loses
// at most the operation in flight. Safe for concurrent use; the API, the
// tray and the player callbacks all go through one Manager.
type Manager struct {
	store *Store

	mu    sync.Mutex
	state *State
	list  *cutlist.List
}

// NewManager loads the save file (or starts a fresh default session) and
// wraps it for concurrent editing.
func NewManager(store *Store) (*Manager, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	list, err := state.List()
	if err != nil {
		return nil, err
	}
	return &Manager{store: store, state: state, list: list}, nil
}

// Store returns the backing save-file store.
func (m *Manager) Store() *Store {
	return m.store
}

// Snapshot returns a copy of the current state, segments included.
func (m *Manager) Snapshot() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *m.state
	s.Capture(m.list)
	return &s
}

// Replace swaps in a whole new state, as when the client PUTs the full
// session. The segments are validated before anything is committed.
func (m *Manager) Replace(s *State) error {
	if s.Mode != cutlist.ModeKeep && s.Mode != cutlist.ModeRemove {
		return fmt.Errorf("unknown mode %q", s.Mode)
	}
	list, err := s.List()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.list = list
	return m.persistLocked()
}

// PutAnchor arms or pairs an anchor at pos and persists the result.
func (m *Manager) PutAnchor(pos float64) (cutlist.Move, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	move := m.list.PutAnchor(pos)
	return move, m.persistLocked()
}

// DeleteAnchor removes the boundary closest to pos. ok is false when
// there was nothing to delete.
func (m *Manager) DeleteAnchor(pos float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.list.DeleteAnchor(pos)
	if !ok {
		return false, nil
	}
	return true, m.persistLocked()
}

// SetMode switches between keep and remove.
func (m *Manager) SetMode(mode cutlist.Mode) error {
	if mode != cutlist.ModeKeep && mode != cutlist.ModeRemove {
		return fmt.Errorf("unknown mode %q", mode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Mode = mode
	return m.persistLocked()
}

// Mode returns the current editing mode.
func (m *Manager) Mode() cutlist.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Mode
}

// SegmentCount returns the number of complete segments.
func (m *Manager) SegmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Len()
}

// Boundaries returns all segment boundaries plus the pending anchor.
func (m *Manager) Boundaries() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Boundaries()
}

// CutSegments resolves the current list into the material that survives
// the cut: in remove mode the list is inverted over the duration, in keep
// mode it is used as-is. When frame timestamps are known the boundaries
// are snapped onto them. The marked list is validated against the
// duration before any of this, so a bad save file never reaches ffmpeg.
func (m *Manager) CutSegments(duration, frameDur float64, pts []float64) ([]cutlist.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.list.Len() == 0 {
		return nil, fmt.Errorf("no segments marked")
	}
	if err := m.list.Validate(duration); err != nil {
		return nil, err
	}

	keep := m.state.Mode == cutlist.ModeKeep
	var segs []cutlist.Segment
	if keep {
		segs = m.list.Segments()
	} else {
		segs = m.list.Invert(duration, frameDur, pts)
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("nothing left after removing the marked segments")
	}

	if frameDur > 0 {
		segs = cutlist.Snap(segs, pts, frameDur, keep)
	}

	// Snapping may pad the last boundary a frame past the reported
	// duration, which ffmpeg clamps, so only structural validation here.
	check := &cutlist.List{}
	if err := check.SetSegments(segs); err != nil {
		return nil, fmt.Errorf("resolved segments: %w", err)
	}
	return check.Segments(), nil
}

// persistLocked captures the list into the state and writes the save file.
// Callers hold m.mu.
func (m *Manager) persistLocked() error {
	m.state.Capture(m.list)
	return m.store.Save(m.state)
}

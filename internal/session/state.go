// Package session persists the editing state of a single video to its
// save file. The file is plain JSON next to the video (or wherever -s
// points), so it can be inspected and hand-edited between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hermit-crab/ffcutter/internal/cutlist"
)

// State is the on-disk shape of a save file. Segments are [start, end]
// pairs in seconds, anchor is the pending boundary if one was armed when
// the session was saved.
type State struct {
	Mode     cutlist.Mode      `json:"mode"`
	Segments []cutlist.Segment `json:"segments"`
	Anchor   *float64          `json:"anchor"`
	FFArgs   string            `json:"ffargs"`
	Encode   bool              `json:"encode"`
	TwoPass  bool              `json:"2-pass"`
}

// Default returns the state a fresh session starts from.
func Default() *State {
	return &State{
		Mode:     cutlist.ModeRemove,
		Segments: []cutlist.Segment{},
	}
}

// List builds a cutlist from the persisted segments and anchor.
func (s *State) List() (*cutlist.List, error) {
	l := &cutlist.List{}
	if err := l.SetSegments(s.Segments); err != nil {
		return nil, fmt.Errorf("save file segments: %w", err)
	}
	l.SetAnchor(s.Anchor)
	return l, nil
}

// Capture copies the cutlist back into the state before saving.
func (s *State) Capture(l *cutlist.List) {
	s.Segments = l.Segments()
	if a, ok := l.Anchor(); ok {
		s.Anchor = &a
	} else {
		s.Anchor = nil
	}
}

// Store loads and saves session state at a fixed path.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the save file location.
func (st *Store) Path() string {
	return st.path
}

// Exists reports whether a save file is present.
func (st *Store) Exists() bool {
	_, err := os.Stat(st.path)
	return err == nil
}

// Load reads the save file. A missing file is not an error: the default
// state is returned so a first run starts clean.
func (st *Store) Load() (*State, error) {
	data, err := os.ReadFile(st.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read save file: %w", err)
	}

	s := Default()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse save file %s: %w", st.path, err)
	}
	if s.Mode != cutlist.ModeKeep && s.Mode != cutlist.ModeRemove {
		return nil, fmt.Errorf("save file %s: unknown mode %q", st.path, s.Mode)
	}
	if s.Segments == nil {
		s.Segments = []cutlist.Segment{}
	}
	return s, nil
}

// Save writes the state atomically: the JSON goes to a temp file in the
// same directory, then replaces the save file with a rename. A crash
// mid-write never leaves a truncated session behind.
func (st *Store) Save(s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode save file: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(st.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(st.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp save file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write save file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close save file: %w", err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace save file: %w", err)
	}
	return nil
}

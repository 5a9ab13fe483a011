// Package player drives the mpv preview window over its JSON IPC socket.
// The rest of the program only sees the Player interface, so headless and
// test paths swap in the stub.
package player

import (
	"context"
	"log/slog"
	"sync"
)

// Player is the preview surface: load a file, observe where playback is,
// and nudge it around.
type Player interface {
	// Load opens the video in the player, paused.
	Load(ctx context.Context, video string) error

	// Position returns the current playback position in seconds. ok is
	// false before playback has started.
	Position() (pos float64, ok bool)

	// Duration returns the media duration once the player reports it.
	Duration() (dur float64, ok bool)

	// Seek jumps to an absolute position with exact (non-keyframe) seeking.
	Seek(pos float64) error

	// FrameStep advances one frame, or goes back one when backwards is set.
	FrameStep(backwards bool) error

	// CyclePause toggles play/pause.
	CyclePause() error

	// ShowText flashes a message on the player OSD for durationMs.
	ShowText(text string, durationMs int) error

	// Close shuts the player down. Safe to call more than once.
	Close() error
}

// Stub is the no-op Player used by --cut, --print and tests. Seeks are
// remembered so position-dependent logic stays exercisable.
type Stub struct {
	log *slog.Logger

	mu  sync.Mutex
	pos float64
	set bool
	dur float64
}

func NewStub(log *slog.Logger) *Stub {
	return &Stub{log: log}
}

// SetDuration primes the stub with a known media duration.
func (s *Stub) SetDuration(d float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dur = d
}

func (s *Stub) Load(_ context.Context, video string) error {
	s.log.Debug("stub player load", "video", video)
	return nil
}

func (s *Stub) Position() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, s.set
}

func (s *Stub) Duration() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dur, s.dur > 0
}

func (s *Stub) Seek(pos float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos, s.set = pos, true
	return nil
}

func (s *Stub) FrameStep(bool) error       { return nil }
func (s *Stub) CyclePause() error          { return nil }
func (s *Stub) ShowText(string, int) error { return nil }
func (s *Stub) Close() error               { return nil }

var (
	_ Player = (*Stub)(nil)
	_ Player = (*MPV)(nil)
)

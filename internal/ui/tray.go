// Package ui puts ffcutter in the system tray while a session is open.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/hermit-crab/ffcutter/internal/catalog"
	"github.com/hermit-crab/ffcutter/internal/session"
)

type Tray struct {
	sess   *session.Manager
	runner *catalog.Runner
	logger *slog.Logger

	statusItem   *systray.MenuItem
	segmentsItem *systray.MenuItem
	pauseItem    *systray.MenuItem

	mu sync.Mutex

	onCut  func() error
	onQuit func()
}

type TrayConfig struct {
	Session *session.Manager
	Runner  *catalog.Runner
	Logger  *slog.Logger

	// OnCut enqueues a cut of the current session.
	OnCut func() error
	// OnQuit tears the rest of the process down; systray.Quit follows.
	OnQuit func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		sess:   cfg.Session,
		runner: cfg.Runner,
		logger: cfg.Logger,
		onCut:  cfg.OnCut,
		onQuit: cfg.OnQuit,
	}
}

// Run blocks until the tray exits. Must be called from the main goroutine
// on platforms where the tray needs the main thread.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes())
	systray.SetTitle("ffcutter")
	systray.SetTooltip("ffcutter")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current status")
	t.statusItem.Disable()

	t.segmentsItem = systray.AddMenuItem("Segments: 0", "Marked segments")
	t.segmentsItem.Disable()

	systray.AddSeparator()

	cutItem := systray.AddMenuItem("Run Cut", "Cut the video with the current segments")
	t.pauseItem = systray.AddMenuItem("Pause Cutting", "Pause the cut job runner")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit ffcutter")

	go func() {
		for {
			select {
			case <-cutItem.ClickedCh:
				t.handleCut()
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	if t.sess != nil {
		t.UpdateSegments(t.sess.SegmentCount())
	}
	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) handleCut() {
	if t.onCut == nil {
		return
	}
	if err := t.onCut(); err != nil {
		t.logger.Error("failed to start cut", "error", err)
		t.UpdateStatus("Cut failed: " + err.Error())
		return
	}
	t.UpdateStatus("Cutting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause Cutting")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume Cutting")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateSegments(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segmentsItem.SetTitle(fmt.Sprintf("Segments: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}

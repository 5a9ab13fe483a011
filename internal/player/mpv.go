package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

const (
	connectTimeout = 10 * time.Second
	requestTimeout = 5 * time.Second

	observeTimePos  = 1
	observeDuration = 2
)

// ErrPlayerClosed is returned by commands after Close.
var ErrPlayerClosed = errors.New("player closed")

// MPV runs an mpv process and talks to it over the JSON IPC socket.
type MPV struct {
	log       *slog.Logger
	binary    string
	socket    string
	extraArgs []string
	cmd       *exec.Cmd

	encMu sync.Mutex
	conn  net.Conn

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan ipcMessage
	pos     float64
	posOK   bool
	dur     float64
	durOK   bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewMPV prepares an mpv player. binary defaults to "mpv"; socketDir is
// where the IPC socket is created; overrides are raw --mpv options merged
// over the defaults.
func NewMPV(binary, socketDir string, overrides []string, log *slog.Logger) *MPV {
	if binary == "" {
		binary = "mpv"
	}
	return &MPV{
		log:       log,
		binary:    binary,
		socket:    filepath.Join(socketDir, fmt.Sprintf("mpv-%d.sock", os.Getpid())),
		extraArgs: BuildArgs(overrides),
		pending:   make(map[int64]chan ipcMessage),
		done:      make(chan struct{}),
	}
}

// Load spawns mpv with the video, connects to its IPC socket and starts
// observing playback position and duration. Playback begins paused.
func (m *MPV) Load(ctx context.Context, video string) error {
	args := []string{"--input-ipc-server=" + m.socket, "--pause"}
	args = append(args, m.extraArgs...)
	args = append(args, video)

	m.cmd = exec.Command(m.binary, args...)
	m.cmd.Stdout = os.Stderr
	m.cmd.Stderr = os.Stderr
	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}
	m.log.Info("mpv started", "pid", m.cmd.Process.Pid, "socket", m.socket)

	conn, err := m.dial(ctx)
	if err != nil {
		m.cmd.Process.Kill()
		m.cmd.Wait()
		return err
	}
	m.attach(conn)

	if _, err := m.command(ctx, "observe_property", observeTimePos, "time-pos"); err != nil {
		return fmt.Errorf("observe time-pos: %w", err)
	}
	if _, err := m.command(ctx, "observe_property", observeDuration, "duration"); err != nil {
		return fmt.Errorf("observe duration: %w", err)
	}
	return nil
}

// dial waits for mpv to create the socket, then connects.
func (m *MPV) dial(ctx context.Context) (net.Conn, error) {
	deadline := time.Now().Add(connectTimeout)
	for {
		conn, err := net.Dial("unix", m.socket)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("mpv socket %s: %w", m.socket, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// attach wires an established IPC connection and starts the read loop.
// Split from Load so tests can drive the protocol over a pipe.
func (m *MPV) attach(conn net.Conn) {
	m.conn = conn
	go m.readLoop(conn)
}

func (m *MPV) Position() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos, m.posOK
}

func (m *MPV) Duration() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dur, m.durOK
}

func (m *MPV) Seek(pos float64) error {
	_, err := m.command(context.Background(), "seek", pos, "absolute+exact")
	return err
}

func (m *MPV) FrameStep(backwards bool) error {
	name := "frame-step"
	if backwards {
		name = "frame-back-step"
	}
	_, err := m.command(context.Background(), name)
	return err
}

func (m *MPV) CyclePause() error {
	_, err := m.command(context.Background(), "cycle", "pause")
	return err
}

func (m *MPV) ShowText(text string, durationMs int) error {
	_, err := m.command(context.Background(), "show-text", text, durationMs)
	return err
}

// Close quits mpv and reaps the process.
func (m *MPV) Close() error {
	m.closeOnce.Do(func() {
		// Best effort; the process may already be gone.
		m.command(context.Background(), "quit")
		close(m.done)
		if m.conn != nil {
			m.conn.Close()
		}
		if m.cmd != nil && m.cmd.Process != nil {
			m.cmd.Wait()
		}
		os.Remove(m.socket)
	})
	return nil
}

// --- JSON IPC ---

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type ipcMessage struct {
	RequestID int64           `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Event     string          `json:"event,omitempty"`
	ID        int64           `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
}

// command sends one request and waits for its reply, matched by request
// id. mpv interleaves replies with events, the read loop sorts them out.
func (m *MPV) command(ctx context.Context, args ...any) (json.RawMessage, error) {
	if m.conn == nil {
		return nil, ErrPlayerClosed
	}
	select {
	case <-m.done:
		return nil, ErrPlayerClosed
	default:
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	ch := make(chan ipcMessage, 1)
	m.pending[id] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}()

	m.encMu.Lock()
	err := json.NewEncoder(m.conn).Encode(ipcRequest{Command: args, RequestID: id})
	m.encMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("mpv send: %w", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("mpv command %v: %s", args, resp.Error)
		}
		return resp.Data, nil
	case <-time.After(requestTimeout):
		return nil, fmt.Errorf("mpv command %v: timeout", args)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, ErrPlayerClosed
	}
}

func (m *MPV) readLoop(conn net.Conn) {
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			m.log.Warn("mpv sent unparseable line", "error", err)
			continue
		}

		switch {
		case msg.Event == "property-change":
			m.handleProperty(msg)
		case msg.RequestID != 0:
			m.mu.Lock()
			ch := m.pending[msg.RequestID]
			m.mu.Unlock()
			if ch != nil {
				ch <- msg
			}
		}
	}
}

func (m *MPV) handleProperty(msg ipcMessage) {
	// Data is null while the property is unavailable (before playback
	// starts, or during seeks).
	var v *float64
	if len(msg.Data) > 0 {
		json.Unmarshal(msg.Data, &v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	switch msg.Name {
	case "time-pos":
		if v != nil {
			m.pos, m.posOK = *v, true
		}
	case "duration":
		if v != nil {
			m.dur, m.durOK = *v, true
		}
	}
}

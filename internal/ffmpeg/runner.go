package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

// RunResult captures the outcome of one subprocess invocation.
type RunResult struct {
	ExitCode   int
	StderrTail string
	Duration   time.Duration
}

func (r RunResult) IsSuccess() bool {
	return r.ExitCode == 0
}

// CommandError reports which command of a sequence failed and how.
type CommandError struct {
	Index  int
	Argv   []string
	Result RunResult
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %d (%s) exited %d: %s",
		e.Index+1, e.Argv[0], e.Result.ExitCode, truncate(e.Result.StderrTail, 512))
}

// Executor runs ffmpeg commands sequentially. Output streams through to
// the configured writers so encode progress stays visible, while a
// bounded stderr tail is kept for error reporting.
type Executor struct {
	Log    *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecutor(log *slog.Logger) *Executor {
	return &Executor{Log: log, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes a single command and reports its result. A non-zero exit
// is not an error at this level; the caller decides.
func (e *Executor) Run(ctx context.Context, argv []string) (RunResult, error) {
	if len(argv) == 0 {
		return RunResult{ExitCode: -1}, errors.New("empty command")
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var tail bytes.Buffer
	stderr := io.Writer(&limitedWriter{w: &tail, limit: maxStderrBytes})
	if e.Stderr != nil {
		stderr = io.MultiWriter(e.Stderr, stderr)
	}
	cmd.Stderr = stderr
	if e.Stdout != nil {
		cmd.Stdout = e.Stdout
	}

	e.Log.Info("executing command", "argv", argv)

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return RunResult{ExitCode: -1, StderrTail: err.Error(), Duration: elapsed}, err
		}
	}

	result := RunResult{ExitCode: exitCode, StderrTail: tail.String(), Duration: elapsed}
	if exitCode != 0 {
		e.Log.Warn("command failed",
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(result.StderrTail, 512),
		)
	} else {
		e.Log.Info("command succeeded", "duration_ms", elapsed.Milliseconds())
	}
	return result, nil
}

// RunAll executes commands in order and stops at the first failure,
// returning a CommandError for it. onStart, when set, is called before
// each command with its position.
func (e *Executor) RunAll(ctx context.Context, commands [][]string, onStart func(i, n int, argv []string)) error {
	n := len(commands)
	for i, argv := range commands {
		if onStart != nil {
			onStart(i, n, argv)
		}
		result, err := e.Run(ctx, argv)
		if err != nil {
			return fmt.Errorf("command %d/%d: %w", i+1, n, err)
		}
		if !result.IsSuccess() {
			return &CommandError{Index: i, Argv: argv, Result: result}
		}
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter keeps only the last limit bytes written through it.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}

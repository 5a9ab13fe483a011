package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testExecutor() *Executor {
	return &Executor{
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Stdout: io.Discard,
		Stderr: io.Discard,
	}
}

func TestExecutorRun_Success(t *testing.T) {
	result, err := testExecutor().Run(context.Background(), []string{"sh", "-c", "exit 0"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("result = %+v", result)
	}
}

func TestExecutorRun_CapturesStderrTail(t *testing.T) {
	result, err := testExecutor().Run(context.Background(), []string{"sh", "-c", "echo boom >&2; exit 3"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d", result.ExitCode)
	}
	if !strings.Contains(result.StderrTail, "boom") {
		t.Errorf("stderr tail = %q", result.StderrTail)
	}
}

func TestExecutorRun_MissingBinary(t *testing.T) {
	if _, err := testExecutor().Run(context.Background(), []string{"ffcutter-no-such-binary"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestExecutorRunAll_StopsOnFirstFailure(t *testing.T) {
	var started [][]string
	commands := [][]string{
		{"sh", "-c", "exit 0"},
		{"sh", "-c", "exit 7"},
		{"sh", "-c", "exit 0"},
	}

	err := testExecutor().RunAll(context.Background(), commands, func(i, n int, argv []string) {
		started = append(started, argv)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %T %v", err, err)
	}
	if cmdErr.Index != 1 || cmdErr.Result.ExitCode != 7 {
		t.Errorf("command error = %+v", cmdErr)
	}
	if len(started) != 2 {
		t.Errorf("started %d commands, want 2", len(started))
	}
}

func TestLimitedWriterKeepsTail(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: 4}

	lw.Write([]byte("abcdefgh"))
	if got := buf.String(); got != "efgh" {
		t.Errorf("tail = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefgh", 4); got != "...efgh" {
		t.Errorf("truncate = %q", got)
	}
}

package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hermit-crab/ffcutter/internal/cutlist"
	"github.com/hermit-crab/ffcutter/internal/db"
)

func testService(t *testing.T) (*Service, Repository) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := NewRepository(database.Conn())
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func testVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("fake video content"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegisterVideo(t *testing.T) {
	svc, _ := testService(t)
	path := testVideoFile(t)

	video, err := svc.RegisterVideo(context.Background(), path, path+".ffcutter", 120.5)
	if err != nil {
		t.Fatalf("RegisterVideo: %v", err)
	}
	if video.ID == 0 {
		t.Error("video ID not assigned")
	}
	if video.Filename != "clip.mp4" {
		t.Errorf("filename = %q", video.Filename)
	}
	if video.Fingerprint == "" {
		t.Error("fingerprint empty")
	}
	if video.Duration != 120.5 {
		t.Errorf("duration = %v", video.Duration)
	}
}

func TestRegisterVideo_UpsertKeepsID(t *testing.T) {
	svc, repo := testService(t)
	path := testVideoFile(t)

	first, err := svc.RegisterVideo(context.Background(), path, "", 0)
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	second, err := svc.RegisterVideo(context.Background(), path, "", 60)
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("IDs differ: %d vs %d", first.ID, second.ID)
	}

	stored, err := repo.GetVideo(context.Background(), first.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetVideo: %v, %v", stored, err)
	}
	if stored.Duration != 60 {
		t.Errorf("duration not refreshed: %v", stored.Duration)
	}
}

func TestRegisterVideo_KeepsDurationWhenUnchanged(t *testing.T) {
	svc, _ := testService(t)
	path := testVideoFile(t)

	if _, err := svc.RegisterVideo(context.Background(), path, "", 120.5); err != nil {
		t.Fatalf("first register: %v", err)
	}

	// Probe failed on the next run: the stored duration survives.
	again, err := svc.RegisterVideo(context.Background(), path, "", 0)
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if again.Duration != 120.5 {
		t.Errorf("duration = %v", again.Duration)
	}

	// The file was replaced: the stale duration is dropped.
	if err := os.WriteFile(path, []byte("different video content"), 0o644); err != nil {
		t.Fatal(err)
	}
	replaced, err := svc.RegisterVideo(context.Background(), path, "", 0)
	if err != nil {
		t.Fatalf("third register: %v", err)
	}
	if replaced.Duration != 0 {
		t.Errorf("duration = %v", replaced.Duration)
	}
}

func TestUpdateDuration(t *testing.T) {
	svc, repo := testService(t)
	path := testVideoFile(t)

	video, err := svc.RegisterVideo(context.Background(), path, "", 0)
	if err != nil {
		t.Fatalf("RegisterVideo: %v", err)
	}
	if err := svc.UpdateDuration(context.Background(), video, 42.25); err != nil {
		t.Fatalf("UpdateDuration: %v", err)
	}

	stored, err := repo.GetVideo(context.Background(), video.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetVideo: %v, %v", stored, err)
	}
	if stored.Duration != 42.25 {
		t.Errorf("duration = %v", stored.Duration)
	}
}

func TestRegisterVideo_Missing(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.RegisterVideo(context.Background(), "/nope/missing.mp4", "", 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnqueueCut(t *testing.T) {
	svc, repo := testService(t)
	path := testVideoFile(t)

	video, err := svc.RegisterVideo(context.Background(), path, "", 0)
	if err != nil {
		t.Fatalf("RegisterVideo: %v", err)
	}

	payload := &CutPayload{
		Segments: []cutlist.Segment{{Start: 10, End: 20}},
		Encode:   true,
		FFArgs:   "out: cut.mp4",
	}
	job, err := svc.EnqueueCut(context.Background(), video.ID, payload)
	if err != nil {
		t.Fatalf("EnqueueCut: %v", err)
	}
	if job.ID == 0 || job.Status != JobStatusPending || job.Type != JobTypeCut {
		t.Fatalf("job = %+v", job)
	}

	pending, err := repo.ListPendingJobs(context.Background())
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %v, %v", pending, err)
	}

	decoded, err := DecodePayload(pending[0].Payload)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if len(decoded.Segments) != 1 || decoded.Segments[0] != (cutlist.Segment{Start: 10, End: 20}) {
		t.Errorf("segments = %v", decoded.Segments)
	}
	if !decoded.Encode || decoded.TwoPass {
		t.Errorf("flags = %+v", decoded)
	}
}

func TestEnqueueCut_EmptySegments(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.EnqueueCut(context.Background(), 1, &CutPayload{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureAuthToken_Stable(t *testing.T) {
	svc, _ := testService(t)

	first, err := svc.EnsureAuthToken(context.Background())
	if err != nil {
		t.Fatalf("EnsureAuthToken: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d", len(first))
	}

	second, err := svc.EnsureAuthToken(context.Background())
	if err != nil {
		t.Fatalf("second EnsureAuthToken: %v", err)
	}
	if first != second {
		t.Error("token changed between calls")
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"movie.mp4", true},
		{"MOVIE.MKV", true},
		{"clip.webm", true},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsVideoFile(tt.name); got != tt.want {
			t.Errorf("IsVideoFile(%q) = %v", tt.name, got)
		}
	}
}

package playback

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		size    int64
		want    *ByteRange
		wantErr error
	}{
		{"no header", "", 100, nil, nil},
		{"full range", "bytes=0-99", 100, &ByteRange{0, 99}, nil},
		{"open ended", "bytes=10-", 100, &ByteRange{10, 99}, nil},
		{"suffix", "bytes=-20", 100, &ByteRange{80, 99}, nil},
		{"suffix larger than file", "bytes=-500", 100, &ByteRange{0, 99}, nil},
		{"end clamped", "bytes=0-500", 100, &ByteRange{0, 99}, nil},
		{"multi range takes first", "bytes=0-9,50-59", 100, &ByteRange{0, 9}, nil},
		{"bad unit", "lines=0-10", 100, nil, ErrInvalidRange},
		{"garbage", "bytes=abc", 100, nil, ErrInvalidRange},
		{"start past size", "bytes=100-", 100, nil, ErrUnsatisfiable},
		{"inverted", "bytes=50-10", 100, nil, ErrUnsatisfiable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.want == nil {
				if got != nil {
					t.Fatalf("range = %+v, want nil", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Fatalf("range = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func testSource(t *testing.T, content string) *Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewSource(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSource_FullFile(t *testing.T) {
	src := testSource(t, "0123456789")

	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "0123456789" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got == "" {
		t.Error("missing Content-Type")
	}
}

func TestSource_PartialContent(t *testing.T) {
	src := testSource(t, "0123456789")

	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "2345" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "4" {
		t.Errorf("Content-Length = %q", got)
	}
}

func TestSource_UnsatisfiableRange(t *testing.T) {
	src := testSource(t, "0123456789")

	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	req.Header.Set("Range", "bytes=100-")
	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */10" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestSource_InvalidRangeServesWholeFile(t *testing.T) {
	src := testSource(t, "0123456789")

	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	req.Header.Set("Range", "bytes=nonsense")
	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "0123456789" {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
}

func TestSource_Head(t *testing.T) {
	src := testSource(t, "0123456789")

	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/video", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Length"); got != "10" {
		t.Errorf("Content-Length = %q", got)
	}
}

func TestSource_MissingFile(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "gone.mp4"), slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	src.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

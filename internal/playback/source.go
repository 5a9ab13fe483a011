package playback

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// Source streams one fixed file. Binding the path at construction keeps
// the HTTP layer from ever serving arbitrary filesystem locations.
type Source struct {
	path string
	log  *slog.Logger
}

func NewSource(path string, log *slog.Logger) *Source {
	return &Source{path: path, log: log}
}

func (s *Source) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		s.log.Error("playback open failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		s.log.Error("playback stat failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(s.path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	rng, err := ParseRange(r.Header.Get("Range"), size)
	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}
	// A malformed Range header is ignored and the whole file served, per
	// RFC 7233 §3.1.
	if rng == nil || err == ErrInvalidRange {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			io.Copy(w, file)
		}
		return
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", rng.ContentLength()))
	w.Header().Set("Content-Range", rng.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return
	}

	if _, err := file.Seek(rng.Start, io.SeekStart); err != nil {
		s.log.Error("playback seek failed", "error", err)
		return
	}
	if _, err := io.CopyN(w, file, rng.ContentLength()); err != nil {
		s.log.Debug("playback copy interrupted", "error", err)
	}
}

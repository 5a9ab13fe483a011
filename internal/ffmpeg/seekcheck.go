package ffmpeg

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SeekCheck verifies that stream-copy seeking lands on the right frame
// for this file. It extracts the frame at pos twice, once decoding and
// once through a stream-copied intermediate, and compares the pixels.
// Containers where the two differ will produce inaccurate no-encode cuts.
func SeekCheck(ctx context.Context, exe *Executor, binary, video string, pos float64, tmpDir string) (bool, error) {
	if binary == "" {
		binary = "ffmpeg"
	}

	direct := filepath.Join(tmpDir, "seekcheck1.png")
	copied := filepath.Join(tmpDir, "seekcheck2"+filepath.Ext(video))
	viaCopy := filepath.Join(tmpDir, "seekcheck2.png")
	defer func() {
		for _, f := range []string{direct, copied, viaCopy} {
			os.Remove(f)
		}
	}()

	steps := [][]string{
		{binary, "-i", video, "-y", "-frames", "1", "-v", "error", direct},
		{binary, "-i", video, "-y", "-ss", fmt.Sprint(pos), "-c", "copy", "-frames", "1", "-v", "error", copied},
		{binary, "-i", copied, "-y", "-frames", "1", "-v", "error", viaCopy},
	}
	for _, argv := range steps {
		result, err := exe.Run(ctx, argv)
		if err != nil {
			return false, err
		}
		if !result.IsSuccess() {
			return false, fmt.Errorf("seek check command exited %d: %s", result.ExitCode, truncate(result.StderrTail, 512))
		}
	}

	h1, err := fileDigest(direct)
	if err != nil {
		return false, err
	}
	h2, err := fileDigest(viaCopy)
	if err != nil {
		return false, err
	}
	return bytes.Equal(h1, h2), nil
}

func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seek check frame: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

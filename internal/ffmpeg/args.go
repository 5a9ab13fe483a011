// Package ffmpeg turns a segment list into the ffmpeg command sequence
// that extracts the kept material into part files and concatenates them,
// and runs those commands as subprocesses.
package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Args are the user-editable knobs of the generated commands, parsed from
// the free-form args block stored in the session.
type Args struct {
	OutFile string
	OutArgs []string
	InArgs  []string
}

// DefaultOutFile derives the output name from the input: the extension is
// kept and ".ffcutter" goes before it.
func DefaultOutFile(input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".ffcutter" + ext
}

// DefaultArgsBlock returns the args block a fresh session starts with.
func DefaultArgsBlock(input string) string {
	return fmt.Sprintf("out: %s\nout-args:\nin-args:\n", DefaultOutFile(input))
}

// ParseArgsBlock reads the args block line by line. Recognized prefixes
// are "out:", "out-args:" and "in-args:"; other lines are ignored.
// Tokens starting with # are dropped so arguments can be commented out in
// place. A missing out: line falls back to DefaultOutFile(input).
func ParseArgsBlock(text, input string) Args {
	var a Args
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "out:"):
			a.OutFile = strings.TrimSpace(line[len("out:"):])
		case strings.HasPrefix(line, "out-args:"):
			a.OutArgs = splitArgs(line[len("out-args:"):])
		case strings.HasPrefix(line, "in-args:"):
			a.InArgs = splitArgs(line[len("in-args:"):])
		}
	}
	if a.OutFile == "" {
		a.OutFile = DefaultOutFile(input)
	}
	return a
}

func splitArgs(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		if strings.HasPrefix(tok, "#") {
			continue
		}
		out = append(out, tok)
	}
	return out
}

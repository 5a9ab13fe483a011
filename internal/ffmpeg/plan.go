package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hermit-crab/ffcutter/internal/cutlist"
)

// Plan describes one cut operation: which ranges of the input survive and
// how they get written out.
type Plan struct {
	Binary   string
	Input    string
	Segments []cutlist.Segment // kept material, in playback order
	Encode   bool
	TwoPass  bool
	TmpDir   string
	Args     Args
}

// CommandSet is the ordered ffmpeg invocation list for a plan, plus the
// intermediate files the commands produce and consume. Commands run
// strictly in order; each extraction command must finish before concat.
type CommandSet struct {
	Commands    [][]string
	PartFiles   []string
	ListFile    string
	ListContent string
	OutFile     string
}

// WriteListFile materializes the concat list. Must be called before the
// final command runs.
func (cs *CommandSet) WriteListFile() error {
	if err := os.WriteFile(cs.ListFile, []byte(cs.ListContent), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

// Preview renders the commands one per line, the shape users paste into a
// shell or inspect before running.
func (cs *CommandSet) Preview() string {
	var b strings.Builder
	for _, argv := range cs.Commands {
		b.WriteString(strings.Join(argv, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// Build compiles the plan into commands. Every kept segment becomes a
// part file next to the output; the last command concatenates the parts
// with stream copy.
func (p *Plan) Build() (*CommandSet, error) {
	if len(p.Segments) == 0 {
		return nil, fmt.Errorf("no segments to cut")
	}

	bin := p.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	outFile := p.Args.OutFile
	if outFile == "" {
		outFile = DefaultOutFile(p.Input)
	}
	ext := filepath.Ext(outFile)
	pathName := strings.TrimSuffix(outFile, ext)
	justName := filepath.Base(pathName)

	parts := make([]string, len(p.Segments))
	for i := range p.Segments {
		parts[i] = fmt.Sprintf("%s.part%03d%s", pathName, i, ext)
	}

	cs := &CommandSet{
		PartFiles: parts,
		OutFile:   outFile,
		ListFile:  filepath.Join(p.TmpDir, justName+ext+".parts"),
	}

	switch {
	case !p.Encode:
		argv := p.inputArgs(bin)
		for i, seg := range p.Segments {
			argv = append(argv, "-ss", cutlist.FormatSeconds(seg.Start), "-to", cutlist.FormatSeconds(seg.End), "-c", "copy")
			argv = append(argv, p.Args.OutArgs...)
			argv = append(argv, parts[i])
		}
		cs.Commands = append(cs.Commands, argv)

	case p.TwoPass:
		hasFormat := false
		for _, a := range p.Args.OutArgs {
			if a == "-f" {
				hasFormat = true
			}
		}

		passLogs := make([]string, len(parts))
		for i, part := range parts {
			passLogs[i] = filepath.Join(p.TmpDir, filepath.Base(part))
		}

		first := p.inputArgs(bin)
		for i, seg := range p.Segments {
			if !hasFormat {
				first = append(first, "-f", strings.ToLower(strings.TrimPrefix(ext, ".")))
			}
			first = append(first, "-ss", cutlist.FormatSeconds(seg.Start), "-to", cutlist.FormatSeconds(seg.End),
				"-an", "-pass", "1", "-passlogfile", passLogs[i])
			first = append(first, p.Args.OutArgs...)
			first = append(first, os.DevNull)
		}
		cs.Commands = append(cs.Commands, first)

		second := p.inputArgs(bin)
		for i, seg := range p.Segments {
			second = append(second, "-ss", cutlist.FormatSeconds(seg.Start), "-to", cutlist.FormatSeconds(seg.End),
				"-pass", "2", "-passlogfile", passLogs[i])
			second = append(second, p.Args.OutArgs...)
			second = append(second, parts[i])
		}
		cs.Commands = append(cs.Commands, second)

	default:
		argv := p.inputArgs(bin)
		for i, seg := range p.Segments {
			argv = append(argv, "-ss", cutlist.FormatSeconds(seg.Start), "-to", cutlist.FormatSeconds(seg.End))
			argv = append(argv, p.Args.OutArgs...)
			argv = append(argv, parts[i])
		}
		cs.Commands = append(cs.Commands, argv)
	}

	var list strings.Builder
	for _, part := range parts {
		abs, err := filepath.Abs(part)
		if err != nil {
			abs = part
		}
		// Single quotes inside the path are closed, escaped and reopened,
		// the quoting the concat demuxer expects.
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	cs.ListContent = list.String()

	cs.Commands = append(cs.Commands, []string{
		bin, "-f", "concat", "-safe", "0", "-i", cs.ListFile, "-y", "-c", "copy", outFile,
	})
	return cs, nil
}

func (p *Plan) inputArgs(bin string) []string {
	argv := []string{bin}
	argv = append(argv, p.Args.InArgs...)
	return append(argv, "-i", p.Input, "-y")
}

package config

// This file implements CLI flag parsing and help text for the ffcutter
// entry point. The video file is the single positional argument; --mpv may
// be given multiple times to pass raw options through to the player.

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// Invocation holds the per-run settings parsed from the command line.
type Invocation struct {
	VideoFile string // positional: file to cut
	SaveFile  string // -s; defaults to <basename>.ffcutter in the CWD
	MPVOpts   []string

	CutOnly   bool // --cut: run the cut from the save file and exit
	PrintOnly bool // --print: print the ffmpeg commands and exit
	NoIndex   bool // --no-index: skip building the frame index
	Headless  bool // --headless: no system tray
}

// mpvOptList collects repeated --mpv flags.
type mpvOptList []string

func (l *mpvOptList) String() string { return fmt.Sprint([]string(*l)) }

func (l *mpvOptList) Set(s string) error {
	if s == "" {
		return fmt.Errorf("empty mpv option")
	}
	*l = append(*l, s)
	return nil
}

// ParseFlags parses args (without the program name) into an Invocation.
// On --help or --version it prints and exits.
func ParseFlags(args []string) (*Invocation, error) {
	fs := flag.NewFlagSet("ffcutter", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	inv := &Invocation{}
	var mpvOpts mpvOptList
	var showHelp, showVersion bool

	fs.StringVar(&inv.SaveFile, "s", "", "Save file path")
	fs.Var(&mpvOpts, "mpv", "Additional mpv option (repeatable, key=value or bare flag)")
	fs.BoolVar(&inv.CutOnly, "cut", false, "Run the cut from the save file and exit")
	fs.BoolVar(&inv.PrintOnly, "print", false, "Print the ffmpeg commands and exit")
	fs.BoolVar(&inv.NoIndex, "no-index", false, "Skip building the frame index")
	fs.BoolVar(&inv.Headless, "headless", false, "Do not show the system tray icon")
	fs.BoolVar(&showHelp, "h", false, "Show this help and exit")
	fs.BoolVar(&showHelp, "help", false, "Same as -h")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Stdlib flag stops scanning at the first non-flag argument, but options
	// are accepted on either side of the file (ffcutter movie.mkv -s x).
	// Peel off positionals and re-parse the remainder until none are left.
	var positionals []string
	for rest := fs.Args(); len(rest) > 0; rest = fs.Args() {
		positionals = append(positionals, rest[0])
		if len(rest) == 1 {
			break
		}
		if err := fs.Parse(rest[1:]); err != nil {
			return nil, err
		}
	}

	if showHelp {
		printUsage(fs)
		os.Exit(0)
	}
	if showVersion {
		fmt.Fprintln(os.Stdout, "ffcutter v"+Version)
		os.Exit(0)
	}

	if len(positionals) != 1 {
		return nil, fmt.Errorf("need exactly one video file argument")
	}
	inv.VideoFile = positionals[0]
	inv.MPVOpts = mpvOpts

	if inv.SaveFile == "" {
		inv.SaveFile = filepath.Base(inv.VideoFile) + ".ffcutter"
	}

	return inv, nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(fs *flag.FlagSet) {
	const col1 = 26
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "ffcutter v" + Version + " - lossless video cutting with ffmpeg"},
		{"", ""},
		{"  ffcutter [OPTIONS] <video-file>", ""},
		{"", ""},
		{"Session", ""},
		{"  -s <save-file>", "Save file (default: <basename>.ffcutter in the CWD)"},
		{"  --mpv <option>", "Pass option to mpv, repeatable (e.g. --mpv hr-seek=yes)"},
		{"", ""},
		{"Modes", ""},
		{"  --cut", "Run the cut from the save file and exit"},
		{"  --print", "Print the ffmpeg command lines and exit"},
		{"  --no-index", "Skip building the frame index"},
		{"  --headless", "Do not show the system tray icon"},
		{"", ""},
		{"Utility", ""},
		{"  --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
		{"", ""},
		{"Environment", ""},
		{"  FFCUTTER_PORT", "Control API port (default 8765)"},
		{"  FFCUTTER_DATA_DIR", "Data directory (default ~/.ffcutter)"},
		{"  FFCUTTER_LOG_LEVEL", "debug | info | warn | error"},
		{"  FFCUTTER_FFMPEG", "ffmpeg binary override"},
		{"  FFCUTTER_FFPROBE", "ffprobe binary override"},
		{"  FFCUTTER_MPV", "mpv binary override"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

package player

import (
	"sort"
	"strings"
)

// defaultOptions keep playback honest for frame-accurate editing: never
// drop frames, show fractional timestamps on the OSD, and do not rebase
// start times so positions line up with packet timestamps.
var defaultOptions = map[string]string{
	"keep-open":         "yes",
	"rebase-start-time": "no",
	"framedrop":         "no",
	"osd-level":         "2",
	"osd-fractions":     "yes",
	"force-window":      "yes",
}

// BuildArgs merges user overrides into the default option set and renders
// the mpv command line flags. Overrides of the form key=value replace
// defaults of the same key; bare tokens pass through as switches.
func BuildArgs(overrides []string) []string {
	opts := make(map[string]string, len(defaultOptions))
	for k, v := range defaultOptions {
		opts[k] = v
	}

	var switches []string
	for _, o := range overrides {
		o = strings.TrimPrefix(strings.TrimSpace(o), "--")
		if o == "" {
			continue
		}
		if k, v, ok := strings.Cut(o, "="); ok {
			opts[k] = v
		} else {
			switches = append(switches, o)
		}
	}

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys)+len(switches))
	for _, k := range keys {
		args = append(args, "--"+k+"="+opts[k])
	}
	for _, s := range switches {
		args = append(args, "--"+s)
	}
	return args
}

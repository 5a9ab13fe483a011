package ffmpeg

import (
	"reflect"
	"testing"
)

func TestParseArgsBlock(t *testing.T) {
	text := "out: cut.mkv\nout-args: -map 0 #-crf 20 -preset slow\nin-args: -hwaccel auto\nignored line"

	a := ParseArgsBlock(text, "/videos/input.mp4")
	if a.OutFile != "cut.mkv" {
		t.Errorf("OutFile = %q", a.OutFile)
	}
	// Everything from the # token on is commented out.
	if !reflect.DeepEqual(a.OutArgs, []string{"-map", "0"}) {
		t.Errorf("OutArgs = %v", a.OutArgs)
	}
	if !reflect.DeepEqual(a.InArgs, []string{"-hwaccel", "auto"}) {
		t.Errorf("InArgs = %v", a.InArgs)
	}
}

func TestParseArgsBlock_CommentedTokensDropped(t *testing.T) {
	a := ParseArgsBlock("out-args: -map 0 #-an -sn", "in.mp4")
	if !reflect.DeepEqual(a.OutArgs, []string{"-map", "0"}) {
		t.Errorf("OutArgs = %v", a.OutArgs)
	}
}

func TestParseArgsBlock_DefaultOutFile(t *testing.T) {
	a := ParseArgsBlock("", "/videos/holiday.mp4")
	if a.OutFile != "holiday.ffcutter.mp4" {
		t.Errorf("OutFile = %q", a.OutFile)
	}
}

func TestDefaultOutFile(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/videos/a.mp4", "a.ffcutter.mp4"},
		{"clip.mkv", "clip.ffcutter.mkv"},
		{"noext", "noext.ffcutter"},
	}
	for _, tt := range tests {
		if got := DefaultOutFile(tt.in); got != tt.want {
			t.Errorf("DefaultOutFile(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultArgsBlockRoundTrip(t *testing.T) {
	block := DefaultArgsBlock("/videos/holiday.mp4")
	a := ParseArgsBlock(block, "/videos/holiday.mp4")
	if a.OutFile != "holiday.ffcutter.mp4" || len(a.OutArgs) != 0 || len(a.InArgs) != 0 {
		t.Errorf("parsed default block = %+v", a)
	}
}

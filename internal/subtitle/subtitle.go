// Package subtitle flattens karaoke scripts into plain SRT and WebVTT cues.
package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/kara/internal/ass"
)

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents complete subtitle track
type Subtitle struct {
	Entries []Entry
	Title   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatSRT, FormatVTT:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q: supported formats are srt, vtt", s)
	}
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".vtt") {
		return FormatVTT
	}
	return FormatSRT
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	if format == FormatVTT {
		return ".vtt"
	}
	return ".srt"
}

type ExportOptions struct {
	// keep the countdown numbers as cues of their own
	IncludeCountdown bool
}

// FromScript turns every dialogue event into one cue with override tags
// stripped. Cues keep the event order of the script; empty lines are
// dropped.
func FromScript(script *ass.Script, opts ExportOptions) *Subtitle {
	sub := &Subtitle{}
	for _, f := range script.Info {
		if f.Key == "Title" {
			sub.Title = f.Value
		}
	}

	for _, e := range script.Events {
		if e.Style == ass.StyleCountdown && !opts.IncludeCountdown {
			continue
		}
		text := strings.TrimSpace(e.Text())
		if text == "" {
			continue
		}
		sub.Entries = append(sub.Entries, Entry{
			Index:     len(sub.Entries) + 1,
			StartTime: e.Start,
			EndTime:   e.End,
			Text:      text,
		})
	}

	return sub
}

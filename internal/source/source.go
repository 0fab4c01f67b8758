// Package source reads the lyric timing of legacy karaoke formats into the
// common timing model.
package source

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/kara/internal/fsutil"
	"github.com/mgpai22/kara/internal/media"
	"github.com/mgpai22/kara/internal/timing"
)

var (
	// ErrTimingMismatch is returned when the number of timestamps differs
	// from the number of words they belong to.
	ErrTimingMismatch = errors.New("timing count does not match word count")
	// ErrUnresolvedTimingSource is returned when a song carries no usable
	// lyric timing.
	ErrUnresolvedTimingSource = errors.New("no lyric timing source found")
	ErrUnsupportedFormat      = errors.New("unsupported song format")
)

// Format identifies how a song directory is laid out.
type Format int

const (
	FormatUnsupported Format = iota
	FormatKFN
	FormatCDG
	FormatUltraStar
	FormatLRC
)

func (f Format) String() string {
	switch f {
	case FormatKFN:
		return "kfn"
	case FormatCDG:
		return "cdg"
	case FormatUltraStar:
		return "ultrastar"
	case FormatLRC:
		return "lrc"
	default:
		return "unsupported"
	}
}

// Hints carry per-format overrides for script generation. Nil and empty
// fields keep the configured defaults.
type Hints struct {
	Padding        *time.Duration
	HighlightColor string
}

// Song is everything a reader learned about one song.
type Song struct {
	Title    string
	Artist   string
	Year     string
	Language []string
	Genre    []string
	Duration time.Duration
	Tracks   []timing.Track
	Events   []timing.Event
	Hints    Hints
}

// Detect inspects the file names of a song directory. An archive wins over
// anything else; CDG is recognised only so callers can report it.
func Detect(names []string) Format {
	var files []string
	for _, n := range names {
		if n != ".DS_Store" {
			files = append(files, n)
		}
	}
	if len(files) == 0 {
		return FormatUnsupported
	}

	has := func(ext string) bool {
		_, ok := fsutil.FindByExt(files, ext)
		return ok
	}

	switch {
	case has(".kfn"):
		return FormatKFN
	case has(".cdg") && has(".mp3"):
		return FormatCDG
	case has(".txt") && has(".mp3"):
		return FormatUltraStar
	case has(".lrc") && (has(".mp3") || has(".ogg") || has(".flac")):
		return FormatLRC
	default:
		return FormatUnsupported
	}
}

// DetectDir lists dir and detects its format.
func DetectDir(dir string) (Format, []string, error) {
	names, err := fsutil.ListFiles(dir)
	if err != nil {
		return FormatUnsupported, nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	return Detect(names), names, nil
}

// FirstAudio returns the first audio file among names, preferring the
// extensions in the given order.
func FirstAudio(names []string, exts ...string) (string, bool) {
	for _, ext := range exts {
		if name, ok := fsutil.FindByExt(names, ext); ok {
			return name, true
		}
	}
	for _, n := range names {
		if media.IsAudioFile(n) {
			return n, true
		}
	}
	return "", false
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package media inspects audio files that travel with a song.
package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/kara/internal/logging"
)

// Prober reports the playing time of a media file.
type Prober interface {
	Duration(path string) (time.Duration, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(path string) (time.Duration, error)

func (f ProberFunc) Duration(path string) (time.Duration, error) {
	return f(path)
}

// ErrFFprobeNotFound is returned when no ffprobe binary is on PATH.
var ErrFFprobeNotFound = errors.New("ffprobe not found in PATH")

// FFprobe asks ffprobe for the container duration.
type FFprobe struct {
	// zero waits for ffprobe indefinitely
	Timeout time.Duration
	Logger  *logging.Logger
}

// JSON output from ffprobe
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p FFprobe) Duration(path string) (time.Duration, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", path)
	}

	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, ErrFFprobeNotFound
	}

	var (
		out string
		err error
	)
	if p.Timeout > 0 {
		out, err = ffmpeg.ProbeWithTimeout(path, p.Timeout, nil)
	} else {
		out, err = ffmpeg.Probe(path)
	}
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	d, err := ParseProbeOutput([]byte(out))
	if err != nil {
		return 0, err
	}

	p.Logger.Debugw("Probed media duration",
		"file", filepath.Base(path),
		"duration", d,
	)
	return d, nil
}

// ParseProbeOutput reads format.duration from ffprobe JSON, truncated to
// whole seconds.
func ParseProbeOutput(data []byte) (time.Duration, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}
	if seconds < 0 {
		seconds = 0
	}

	return time.Duration(int64(seconds)) * time.Second, nil
}

var audioExts = map[string]bool{
	".mp3":  true,
	".ogg":  true,
	".flac": true,
	".wav":  true,
	".m4a":  true,
}

// IsAudioFile checks the extension only.
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mgpai22/kara/internal/fsutil"
)

// interface for writing subtitles
type Writer interface {
	Encode(sub *Subtitle, w io.Writer) error
}

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteFile encodes sub in the given format and stores it atomically.
func WriteFile(sub *Subtitle, format Format, path string) error {
	w, err := NewWriter(format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := w.Encode(sub, &buf); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

func (w *SRTWriter) Encode(sub *Subtitle, out io.Writer) error {
	var sb strings.Builder
	for i, entry := range sub.Entries {
		// index (1-based)
		fmt.Fprintf(&sb, "%d\n", i+1)

		// timestamps: 00:00:00,000 --> 00:00:00,000
		fmt.Fprintf(&sb, "%s --> %s\n",
			formatSRTTime(entry.StartTime),
			formatSRTTime(entry.EndTime))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	_, err := io.WriteString(out, sb.String())
	return err
}

func (w *VTTWriter) Encode(sub *Subtitle, out io.Writer) error {
	var sb strings.Builder

	sb.WriteString("WEBVTT")
	if sub.Title != "" {
		sb.WriteString(" - ")
		sb.WriteString(sub.Title)
	}
	sb.WriteString("\n\n")

	for i, entry := range sub.Entries {
		// optional cue identifier
		fmt.Fprintf(&sb, "%d\n", i+1)

		// timestamps: 00:00:00.000 --> 00:00:00.000
		fmt.Fprintf(&sb, "%s --> %s\n",
			formatVTTTime(entry.StartTime),
			formatVTTTime(entry.EndTime))

		// a blank line would end the cue early
		sb.WriteString(strings.ReplaceAll(entry.Text, "\n\n", "\n"))
		sb.WriteString("\n\n")
	}

	_, err := io.WriteString(out, sb.String())
	return err
}

func formatSRTTime(d time.Duration) string {
	return formatClock(d, ",")
}

func formatVTTTime(d time.Duration) string {
	return formatClock(d, ".")
}

func formatClock(d time.Duration, sep string) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, seconds, sep, millis)
}

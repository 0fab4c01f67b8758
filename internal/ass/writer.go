package ass

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mgpai22/kara/internal/fsutil"
)

const (
	styleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
	eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

// WriteTo serialises the script: script info, styles, then events.
func (s *Script) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64

	write := func(line string) error {
		written, err := bw.WriteString(line + "\n")
		n += int64(written)
		return err
	}

	lines := []string{"[Script Info]"}
	for _, f := range s.Info {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Key, f.Value))
	}
	lines = append(lines,
		fmt.Sprintf("PlayResX: %d", s.PlayResX),
		fmt.Sprintf("PlayResY: %d", s.PlayResY),
		"",
		"[V4+ Styles]",
		styleFormat,
	)
	for _, style := range s.Styles {
		lines = append(lines, style.line())
	}
	lines = append(lines, "", "[Events]", eventFormat)

	for _, line := range lines {
		if err := write(line); err != nil {
			return n, err
		}
	}

	for _, e := range s.Events {
		if err := write(e.line()); err != nil {
			return n, err
		}
	}

	return n, bw.Flush()
}

func (s *Script) String() string {
	var sb strings.Builder
	_, _ = s.WriteTo(&sb)
	return sb.String()
}

// WriteFile writes the script atomically to path.
func (s *Script) WriteFile(path string) error {
	if err := fsutil.WriteFileAtomic(path, []byte(s.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	return nil
}

// escapeText makes syllable text safe inside a Dialogue line.
func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\\N")
	text = strings.ReplaceAll(text, "{", "(")
	text = strings.ReplaceAll(text, "}", ")")
	return text
}

// Package ass reads and writes Advanced SubStation Alpha karaoke scripts.
package ass

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPlayResX = 640
	DefaultPlayResY = 480

	// fields in a V4+ style line
	styleFieldCount = 23
	// fields in a Dialogue line, the last one being free text
	eventFieldCount = 10
)

var ErrMalformedLine = errors.New("malformed script line")

// LineError describes a script line that was skipped.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// InfoField is a key/value pair of the [Script Info] section.
type InfoField struct {
	Key   string
	Value string
}

// Script is a parsed or generated subtitle script.
type Script struct {
	Info     []InfoField
	PlayResX int
	PlayResY int
	Styles   []Style
	Events   []Event

	// lines dropped while parsing, each wrapping ErrMalformedLine
	Skipped []*LineError
}

// Style returns the style with the given name.
func (s *Script) Style(name string) (*Style, bool) {
	for i := range s.Styles {
		if s.Styles[i].Name == name {
			return &s.Styles[i], true
		}
	}
	return nil, false
}

// Style is a V4+ style line.
type Style struct {
	Name            string
	FontName        string
	FontSize        float64
	PrimaryColour   Color
	SecondaryColour Color
	OutlineColour   Color
	BackColour      Color
	Bold            int
	Italic          int
	Underline       int
	StrikeOut       int
	ScaleX          float64
	ScaleY          float64
	Spacing         float64
	Angle           float64
	BorderStyle     int
	Outline         float64
	Shadow          float64
	Alignment       int
	MarginL         int
	MarginR         int
	MarginV         int
	Encoding        int
}

func parseStyle(content string) (Style, error) {
	parts := strings.Split(content, ",")
	if len(parts) < styleFieldCount {
		return Style{}, fmt.Errorf(
			"%w: style has %d fields, need %d",
			ErrMalformedLine,
			len(parts),
			styleFieldCount,
		)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return Style{
		Name:            parts[0],
		FontName:        parts[1],
		FontSize:        atof(parts[2]),
		PrimaryColour:   parseColorOrZero(parts[3]),
		SecondaryColour: parseColorOrZero(parts[4]),
		OutlineColour:   parseColorOrZero(parts[5]),
		BackColour:      parseColorOrZero(parts[6]),
		Bold:            atoi(parts[7]),
		Italic:          atoi(parts[8]),
		Underline:       atoi(parts[9]),
		StrikeOut:       atoi(parts[10]),
		ScaleX:          atof(parts[11]),
		ScaleY:          atof(parts[12]),
		Spacing:         atof(parts[13]),
		Angle:           atof(parts[14]),
		BorderStyle:     atoi(parts[15]),
		Outline:         atof(parts[16]),
		Shadow:          atof(parts[17]),
		Alignment:       atoi(parts[18]),
		MarginL:         atoi(parts[19]),
		MarginR:         atoi(parts[20]),
		MarginV:         atoi(parts[21]),
		Encoding:        atoi(parts[22]),
	}, nil
}

// line renders the style back to its 23 comma separated fields.
func (s Style) line() string {
	fields := []string{
		s.Name,
		s.FontName,
		ftoa(s.FontSize),
		s.PrimaryColour.String(),
		s.SecondaryColour.String(),
		s.OutlineColour.String(),
		s.BackColour.String(),
		strconv.Itoa(s.Bold),
		strconv.Itoa(s.Italic),
		strconv.Itoa(s.Underline),
		strconv.Itoa(s.StrikeOut),
		ftoa(s.ScaleX),
		ftoa(s.ScaleY),
		ftoa(s.Spacing),
		ftoa(s.Angle),
		strconv.Itoa(s.BorderStyle),
		ftoa(s.Outline),
		ftoa(s.Shadow),
		strconv.Itoa(s.Alignment),
		strconv.Itoa(s.MarginL),
		strconv.Itoa(s.MarginR),
		strconv.Itoa(s.MarginV),
		strconv.Itoa(s.Encoding),
	}
	return "Style: " + strings.Join(fields, ",")
}

// Event is a Dialogue line split into global tags and karaoke syllables.
type Event struct {
	Layer   int
	Start   time.Duration
	End     time.Duration
	Style   string
	Name    string
	MarginL int
	MarginR int
	MarginV int
	Effect  string

	// tags applying to the whole line
	Tags      []Tag
	Syllables []Syllable
	// time the line is shown before the first syllable highlights
	PreRoll time.Duration
	RawText string
}

// Contains reports whether t falls inside the closed interval [Start, End].
func (e Event) Contains(t time.Duration) bool {
	return t >= e.Start && t <= e.End
}

// Text returns the visible text without tags.
func (e Event) Text() string {
	var sb strings.Builder
	for _, s := range e.Syllables {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Syllable is a karaoke unit with its own highlight duration.
type Syllable struct {
	Duration time.Duration
	Text     string
	Tags     []Tag
}

func (e Event) line() string {
	return fmt.Sprintf("Dialogue: %d,%s,%s,%s,%s,%d,%d,%d,%s,%s",
		e.Layer,
		FormatTimestamp(e.Start),
		FormatTimestamp(e.End),
		e.Style,
		e.Name,
		e.MarginL,
		e.MarginR,
		e.MarginV,
		e.Effect,
		e.text(),
	)
}

// text returns RawText, or rebuilds it from the tags and syllables for
// events assembled in code.
func (e Event) text() string {
	if e.RawText != "" {
		return e.RawText
	}

	karaoke := false
	for _, s := range e.Syllables {
		if s.Duration > 0 {
			karaoke = true
			break
		}
	}

	var sb strings.Builder
	if karaoke && e.PreRoll > 0 {
		sb.WriteString(FormatTags(append([]Tag{KaraokeTag{Duration: e.PreRoll}}, e.Tags...)...))
	} else {
		sb.WriteString(FormatTags(e.Tags...))
	}
	for _, s := range e.Syllables {
		if karaoke {
			sb.WriteString(FormatTags(append([]Tag{KaraokeTag{Duration: s.Duration}}, s.Tags...)...))
		}
		sb.WriteString(escapeText(s.Text))
	}
	return sb.String()
}

func atoi(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return int(atof(s))
	}
	return v
}

func atof(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

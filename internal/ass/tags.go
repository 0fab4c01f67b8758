package ass

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Tag is one override inside a {...} block. The concrete types below are
// the only implementations.
type Tag interface {
	// String renders the tag without its leading backslash.
	String() string
	isTag()
}

// KaraokeTag is \k, \K, \kf or \ko.
type KaraokeTag struct {
	Kind     string
	Duration time.Duration
}

// FadeTag is \fad(in,out).
type FadeTag struct {
	In  time.Duration
	Out time.Duration
}

// PositionTag is \pos(x,y).
type PositionTag struct {
	X, Y float64
}

// ResetTag is \r, optionally naming the style to reset to.
type ResetTag struct {
	Style string
}

// ColorTag is \1c..\4c (\c is an alias for \1c).
type ColorTag struct {
	Index int
	Color Color
}

// UnknownTag keeps any other override verbatim.
type UnknownTag struct {
	Raw string
}

func (KaraokeTag) isTag()  {}
func (FadeTag) isTag()     {}
func (PositionTag) isTag() {}
func (ResetTag) isTag()    {}
func (ColorTag) isTag()    {}
func (UnknownTag) isTag()  {}

func (t KaraokeTag) String() string {
	kind := t.Kind
	if kind == "" {
		kind = "k"
	}
	return kind + strconv.FormatInt(centiseconds(t.Duration), 10)
}

func (t FadeTag) String() string {
	return fmt.Sprintf("fad(%d,%d)", t.In.Milliseconds(), t.Out.Milliseconds())
}

func (t PositionTag) String() string {
	return fmt.Sprintf("pos(%s,%s)", ftoa(t.X), ftoa(t.Y))
}

func (t ResetTag) String() string {
	return "r" + t.Style
}

func (t ColorTag) String() string {
	return strconv.Itoa(t.Index) + "c" + t.Color.Override()
}

func (t UnknownTag) String() string {
	return t.Raw
}

var (
	karaokeRegex = regexp.MustCompile(`^(k|K|kf|ko)(\d+)$`)
	colorRegex   = regexp.MustCompile(`^([1-4]?)c(&H[0-9A-Fa-f]+&?)$`)
	parenRegex   = regexp.MustCompile(`^(fad|pos)\(([^)]*)\)$`)
)

// parseTag classifies a single override, given without its backslash.
func parseTag(raw string) Tag {
	if m := karaokeRegex.FindStringSubmatch(raw); m != nil {
		cs, err := strconv.ParseInt(m[2], 10, 64)
		if err == nil {
			return KaraokeTag{Kind: m[1], Duration: time.Duration(cs) * 10 * time.Millisecond}
		}
	}

	if m := parenRegex.FindStringSubmatch(raw); m != nil {
		args := strings.Split(m[2], ",")
		if len(args) == 2 {
			a, errA := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			b, errB := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if errA == nil && errB == nil {
				if m[1] == "fad" {
					return FadeTag{
						In:  time.Duration(a) * time.Millisecond,
						Out: time.Duration(b) * time.Millisecond,
					}
				}
				return PositionTag{X: a, Y: b}
			}
		}
	}

	if m := colorRegex.FindStringSubmatch(raw); m != nil {
		if c, err := ParseColor(m[2]); err == nil {
			index := 1
			if m[1] != "" {
				index, _ = strconv.Atoi(m[1])
			}
			return ColorTag{Index: index, Color: c}
		}
	}

	if raw == "r" {
		return ResetTag{}
	}
	// \r followed by a style name, but not \rnd or other r-prefixed tags
	if strings.HasPrefix(raw, "r") && len(raw) > 1 && !strings.HasPrefix(raw, "rnd") {
		return ResetTag{Style: raw[1:]}
	}

	return UnknownTag{Raw: raw}
}

// FormatTags renders tags as a single override block.
func FormatTags(tags ...Tag) string {
	if len(tags) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for _, t := range tags {
		sb.WriteByte('\\')
		sb.WriteString(t.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

func findFade(tags []Tag) (FadeTag, bool) {
	for _, t := range tags {
		if f, ok := t.(FadeTag); ok {
			return f, true
		}
	}
	return FadeTag{}, false
}

func findPosition(tags []Tag) (PositionTag, bool) {
	for _, t := range tags {
		if p, ok := t.(PositionTag); ok {
			return p, true
		}
	}
	return PositionTag{}, false
}

func findPrimaryColor(tags []Tag) (Color, bool) {
	for _, t := range tags {
		if c, ok := t.(ColorTag); ok && c.Index == 1 {
			return c.Color, true
		}
	}
	return Color{}, false
}

// Fade returns the first \fad among the event's global tags.
func (e Event) Fade() (FadeTag, bool) {
	return findFade(e.Tags)
}

// Position returns the first \pos among the event's global tags.
func (e Event) Position() (PositionTag, bool) {
	return findPosition(e.Tags)
}

// PrimaryColor returns the first line-level \1c override.
func (e Event) PrimaryColor() (Color, bool) {
	return findPrimaryColor(e.Tags)
}

// PrimaryColor returns the first syllable-level \1c override.
func (s Syllable) PrimaryColor() (Color, bool) {
	return findPrimaryColor(s.Tags)
}

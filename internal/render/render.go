// Package render computes what a parsed script shows at a given instant.
// Every function here is pure; callers may query timestamps in any order.
package render

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mgpai22/kara/internal/ass"
)

var ErrUnknownStyleReference = errors.New("event references unknown style")

// ActiveEvent is the visual state of one event at a queried time.
type ActiveEvent struct {
	Event ass.Event `json:"-"`
	Style ass.Style `json:"-"`

	Text string `json:"text"`
	// index of the syllable being sung, -1 during the pre-roll
	ActiveSyllable int         `json:"activeSyllable"`
	Colors         []ass.Color `json:"colors"`
	Opacity        float64     `json:"opacity"`
	X              float64     `json:"x"`
	Y              float64     `json:"y"`
}

// Options tunes Frame. The zero value is ready to use.
type Options struct {
	// OnSkip is called for each active event that cannot be drawn.
	OnSkip func(event ass.Event, err error)
}

// Frame returns the events visible at t, ordered by layer. Events sharing a
// layer keep their script order. An event is visible on the closed interval
// [Start, End].
func Frame(script *ass.Script, t time.Duration, opts Options) []ActiveEvent {
	if script == nil {
		return nil
	}

	var active []ActiveEvent
	for _, e := range script.Events {
		if !e.Contains(t) {
			continue
		}

		style, ok := script.Style(e.Style)
		if !ok {
			if opts.OnSkip != nil {
				opts.OnSkip(e, fmt.Errorf("%w: %q", ErrUnknownStyleReference, e.Style))
			}
			continue
		}

		rel := t - e.Start
		index := ActiveSyllable(e, rel)
		x, y := Anchor(e, *style, script.PlayResX, script.PlayResY)

		active = append(active, ActiveEvent{
			Event:          e,
			Style:          *style,
			Text:           e.Text(),
			ActiveSyllable: index,
			Colors:         SyllableColors(e, *style, index),
			Opacity:        Opacity(e, rel),
			X:              x,
			Y:              y,
		})
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Event.Layer < active[j].Event.Layer
	})

	return active
}

// ActiveSyllable returns the index of the syllable sung rel after the event
// start. It is -1 while the pre-roll runs and the last index once every
// syllable has elapsed.
func ActiveSyllable(e ass.Event, rel time.Duration) int {
	if len(e.Syllables) == 0 || rel < e.PreRoll {
		return -1
	}

	elapsed := e.PreRoll
	for i, s := range e.Syllables {
		elapsed += s.Duration
		if rel < elapsed {
			return i
		}
	}
	return len(e.Syllables) - 1
}

// Opacity applies the event's \fad to rel, in [0, 1].
func Opacity(e ass.Event, rel time.Duration) float64 {
	fade, ok := e.Fade()
	if !ok {
		return 1
	}

	duration := e.End - e.Start
	opacity := 1.0

	if fade.In > 0 && rel < fade.In {
		opacity = float64(rel) / float64(fade.In)
	} else if fade.Out > 0 && rel > duration-fade.Out {
		opacity = float64(duration-rel) / float64(fade.Out)
	}

	return clamp(opacity, 0, 1)
}

// Anchor returns where the event is drawn in script coordinates. An explicit
// \pos wins; otherwise the line is centred horizontally and placed by the
// style's numpad alignment.
func Anchor(e ass.Event, style ass.Style, playResX, playResY int) (float64, float64) {
	if pos, ok := e.Position(); ok {
		return pos.X, pos.Y
	}

	x := float64(playResX) / 2
	marginV := float64(style.MarginV)

	switch {
	case style.Alignment >= 7:
		return x, marginV
	case style.Alignment >= 4:
		return x, float64(playResY) / 2
	default:
		return x, float64(playResY) - marginV
	}
}

// SyllableColors resolves the fill colour of every syllable given the active
// index. Sung syllables take the line's \1c, and a sung syllable's own \1c
// overrides it. Syllables not yet reached keep the style colour.
func SyllableColors(e ass.Event, style ass.Style, active int) []ass.Color {
	colors := make([]ass.Color, len(e.Syllables))
	lineColor, hasLineColor := e.PrimaryColor()

	for i, s := range e.Syllables {
		c := style.PrimaryColour
		if hasLineColor && active >= i {
			c = lineColor
		}
		if own, ok := s.PrimaryColor(); ok && active >= i {
			c = own
		}
		colors[i] = c
	}

	return colors
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package ass

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/kara/internal/timing"
)

const (
	StyleDefault   = "Default"
	StyleCountdown = "Countdown"

	// highlight window given to a line whose syllables carry no usable span
	degenerateLineLength = 500 * time.Millisecond
	countdownFade        = 300 * time.Millisecond
)

// GenerateOptions controls script generation. Zero values fall back to the
// defaults, except Padding and CountdownFrom where zero is meaningful.
type GenerateOptions struct {
	Title            string
	HighlightColor   string
	Font             string
	FontSize         int
	Padding          time.Duration
	CountdownStep    time.Duration
	// numbers shown before the first line, 0 disables the countdown
	CountdownFrom    int
	Width            int
	Height           int
	MaxLinesOnScreen int
}

func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Title:            "Kara Generated Lyrics",
		HighlightColor:   "&H00FF00&",
		Font:             "IMPACT",
		FontSize:         48,
		Padding:          time.Second,
		CountdownStep:    time.Second,
		CountdownFrom:    3,
		Width:            1280,
		Height:           720,
		MaxLinesOnScreen: 4,
	}
}

func (o GenerateOptions) normalized() GenerateOptions {
	def := DefaultGenerateOptions()
	if o.Title == "" {
		o.Title = def.Title
	}
	if o.HighlightColor == "" {
		o.HighlightColor = def.HighlightColor
	}
	if o.Font == "" {
		o.Font = def.Font
	}
	if o.FontSize <= 0 {
		o.FontSize = def.FontSize
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.CountdownStep <= 0 {
		o.CountdownStep = def.CountdownStep
	}
	if o.CountdownFrom < 0 {
		o.CountdownFrom = 0
	}
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.MaxLinesOnScreen <= 0 {
		o.MaxLinesOnScreen = def.MaxLinesOnScreen
	}
	return o
}

// a lyric line ready to be laid out
type lyricLine struct {
	start     time.Duration
	end       time.Duration
	preRoll   time.Duration
	syllables []Syllable
}

// grouped syllable keeping the group id of its event
type groupedSyllable struct {
	group string
	timing.Syllable
}

// Generate turns timing events into a karaoke script. Syllables are
// regrouped by group id in the order groups are first seen. Every line gets
// a highlight pre-roll of opts.Padding and is placed in one of
// MaxLinesOnScreen fixed slots, assigned round-robin.
func Generate(events []timing.Event, opts GenerateOptions) (*Script, error) {
	opts = opts.normalized()

	highlight, err := ParseColor(opts.HighlightColor)
	if err != nil {
		return nil, fmt.Errorf("invalid highlight colour: %w", err)
	}

	script := newScript(opts)

	var flat []groupedSyllable
	for i, e := range events {
		group := e.Group
		if group == "" {
			group = "line" + strconv.Itoa(i)
		}
		for _, s := range e.Syllables {
			flat = append(flat, groupedSyllable{group: group, Syllable: s})
		}
	}

	var lines []lyricLine
	timing.GroupBy(flat, func(s groupedSyllable) string { return s.group }).
		Each(func(_ string, words []groupedSyllable) {
			if line, ok := buildLine(words, opts.Padding); ok {
				lines = append(lines, line)
			}
		})

	if len(lines) == 0 {
		return script, nil
	}

	script.Events = append(script.Events, countdown(lines[0].start, opts)...)

	centerX := float64(opts.Width) / 2
	slotStart := float64(opts.Height) / float64(opts.MaxLinesOnScreen)

	for i, line := range lines {
		slot := i % opts.MaxLinesOnScreen
		y := slotStart + float64(opts.FontSize*slot)

		tags := []Tag{
			ResetTag{},
			ColorTag{Index: 1, Color: highlight},
			PositionTag{X: centerX, Y: y},
		}

		// a line clamped to 0 loses the clipped part of its pre-roll so the
		// words still light up on time
		if line.start < 0 {
			line.preRoll = clampZero(line.preRoll + line.start)
			line.start = 0
		}

		var raw strings.Builder
		if centiseconds(line.preRoll) > 0 {
			raw.WriteString(FormatTags(append([]Tag{KaraokeTag{Duration: line.preRoll}}, tags...)...))
		} else {
			raw.WriteString(FormatTags(tags...))
		}
		for _, s := range line.syllables {
			raw.WriteString(FormatTags(KaraokeTag{Duration: s.Duration}))
			raw.WriteString(escapeText(s.Text))
		}

		script.Events = append(script.Events, Event{
			Start:     line.start,
			End:       line.end,
			Style:     StyleDefault,
			Tags:      tags,
			Syllables: line.syllables,
			PreRoll:   roundCentis(line.preRoll),
			RawText:   raw.String(),
		})
	}

	return script, nil
}

// buildLine computes the padded window and per-word durations of a group.
// Each word lasts until the next word starts; the last one until the end of
// the group.
func buildLine(words []groupedSyllable, padding time.Duration) (lyricLine, bool) {
	first := words[0]
	last := words[len(words)-1]

	lineEnd := last.Start + last.Duration
	if lineEnd <= first.Start {
		lineEnd = first.Start + degenerateLineLength
	}

	line := lyricLine{
		start:   first.Start - padding,
		end:     lineEnd + padding,
		preRoll: padding,
	}

	hasText := false
	for i, w := range words {
		next := lineEnd
		if i+1 < len(words) {
			next = words[i+1].Start
		}
		d := next - w.Start
		if d < 0 {
			d = 0
		}

		text := sanitizeText(w.Text)
		blank := strings.TrimSpace(text) == ""

		// blank syllables cannot survive a parse, fold them into neighbours
		if blank && len(line.syllables) == 0 {
			line.preRoll += d
			continue
		}
		if blank {
			prev := &line.syllables[len(line.syllables)-1]
			prev.Text += text
			prev.Duration += roundCentis(d)
			continue
		}

		hasText = true
		line.syllables = append(line.syllables, Syllable{
			Duration: roundCentis(d),
			Text:     text,
		})
	}

	return line, hasText
}

// countdown builds the numbered lines preceding the first lyric. The "1"
// ends padding before firstStart; each number lasts one CountdownStep.
func countdown(firstStart time.Duration, opts GenerateOptions) []Event {
	var events []Event

	tags := []Tag{
		PositionTag{X: float64(opts.Width) / 2, Y: float64(opts.Height) / 2},
		FadeTag{In: countdownFade, Out: countdownFade},
	}

	for n := opts.CountdownFrom; n >= 1; n-- {
		end := firstStart - opts.Padding - time.Duration(n-1)*opts.CountdownStep
		start := end - opts.CountdownStep
		if end <= 0 {
			continue
		}

		text := strconv.Itoa(n)
		events = append(events, Event{
			Start:     clampZero(start),
			End:       end,
			Style:     StyleCountdown,
			Tags:      tags,
			Syllables: []Syllable{{Text: text}},
			RawText:   FormatTags(tags...) + text,
		})
	}

	return events
}

func newScript(opts GenerateOptions) *Script {
	white := Color{R: 0xFF, G: 0xFF, B: 0xFF}
	black := Color{}

	base := Style{
		Bold:        0,
		ScaleX:      100,
		ScaleY:      100,
		BorderStyle: 1,
		Outline:     2,
		Shadow:      2,
		MarginL:     10,
		MarginR:     10,
		MarginV:     10,
		Encoding:    1,
	}

	def := base
	def.Name = StyleDefault
	def.FontName = opts.Font
	def.FontSize = float64(opts.FontSize)
	def.PrimaryColour = white
	def.SecondaryColour = white
	def.OutlineColour = black
	def.BackColour = black
	def.Alignment = 2

	cd := base
	cd.Name = StyleCountdown
	cd.FontName = "Arial Black"
	cd.FontSize = 80
	cd.PrimaryColour = white
	cd.SecondaryColour = Color{R: 0xFF}
	cd.OutlineColour = black
	cd.BackColour = black
	cd.Alignment = 5

	return &Script{
		Info: []InfoField{
			{Key: "Title", Value: opts.Title},
			{Key: "ScriptType", Value: "v4.00+"},
			{Key: "WrapStyle", Value: "0"},
			{Key: "ScaledBorderAndShadow", Value: "yes"},
			{Key: "YCbCr Matrix", Value: "None"},
		},
		PlayResX: opts.Width,
		PlayResY: opts.Height,
		Styles:   []Style{def, cd},
	}
}

func sanitizeText(text string) string {
	text = strings.ReplaceAll(text, "{", "(")
	return strings.ReplaceAll(text, "}", ")")
}

func roundCentis(d time.Duration) time.Duration {
	return time.Duration(centiseconds(d)) * 10 * time.Millisecond
}

func clampZero(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

package ass

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/kara/internal/timing"
)

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func TestGenerateCountdown(t *testing.T) {
	events := []timing.Event{
		{Group: "text1", Syllables: []timing.Syllable{
			{Text: "Hello", Start: ms(5100), Duration: ms(400)},
		}},
	}

	opts := DefaultGenerateOptions()
	opts.Padding = ms(100)
	opts.CountdownStep = ms(100)

	script, err := Generate(events, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := []struct {
		text       string
		start, end time.Duration
	}{
		{"3", ms(4600), ms(4700)},
		{"2", ms(4700), ms(4800)},
		{"1", ms(4800), ms(4900)},
	}

	if len(script.Events) != len(want)+1 {
		t.Fatalf("expected %d events, got %d", len(want)+1, len(script.Events))
	}

	for i, w := range want {
		e := script.Events[i]
		if e.Style != StyleCountdown {
			t.Errorf("event %d: expected style %s, got %s", i, StyleCountdown, e.Style)
		}
		if e.Start != w.start || e.End != w.end {
			t.Errorf("countdown %s: expected %v-%v, got %v-%v", w.text, w.start, w.end, e.Start, e.End)
		}
		wantRaw := `{\pos(640,360)\fad(300,300)}` + w.text
		if e.RawText != wantRaw {
			t.Errorf("countdown %s: expected text %q, got %q", w.text, wantRaw, e.RawText)
		}
	}

	line := script.Events[3]
	if line.Start != ms(5000) {
		t.Errorf("expected line start 5s, got %v", line.Start)
	}
	if !strings.HasPrefix(line.RawText, `{\k10\r\1c&H00FF00&\pos(640,180)}`) {
		t.Errorf("unexpected line prefix: %q", line.RawText)
	}
}

func TestGenerateSkipsCountdownBeforeZero(t *testing.T) {
	events := []timing.Event{
		{Group: "1", Syllables: []timing.Syllable{{Text: "Hi", Start: ms(2500), Duration: ms(500)}}},
	}

	script, err := Generate(events, DefaultGenerateOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// first padded start is 1.5s, so "1" ends at 0.5s and the others before 0
	var countdown []Event
	for _, e := range script.Events {
		if e.Style == StyleCountdown {
			countdown = append(countdown, e)
		}
	}
	if len(countdown) != 1 {
		t.Fatalf("expected 1 countdown event, got %d", len(countdown))
	}
	if countdown[0].Start != 0 || countdown[0].End != ms(500) {
		t.Errorf("expected clamped 0-500ms, got %v-%v", countdown[0].Start, countdown[0].End)
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	events := []timing.Event{
		{Group: "text1", Syllables: []timing.Syllable{
			{Text: "Hel", Start: ms(1000), Duration: ms(300)},
			{Text: "lo ", Start: ms(1300), Duration: ms(200)},
			{Text: "world", Start: ms(1500), Duration: ms(500)},
		}},
		{Group: "text2", Syllables: []timing.Syllable{
			{Text: "Bye", Start: ms(3000), Duration: ms(400)},
		}},
	}

	generated, err := Generate(events, DefaultGenerateOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	parsed := ParseString(generated.String(), nil)

	if len(parsed.Skipped) != 0 {
		t.Fatalf("unexpected skipped lines: %v", parsed.Skipped)
	}
	if len(parsed.Styles) != 2 {
		t.Fatalf("expected 2 styles, got %d", len(parsed.Styles))
	}
	if !reflect.DeepEqual(parsed.Styles, generated.Styles) {
		t.Errorf("styles differ:\n got %+v\nwant %+v", parsed.Styles, generated.Styles)
	}
	if parsed.PlayResX != 1280 || parsed.PlayResY != 720 {
		t.Errorf("expected 1280x720, got %dx%d", parsed.PlayResX, parsed.PlayResY)
	}
	if len(parsed.Events) != len(generated.Events) {
		t.Fatalf("expected %d events, got %d", len(generated.Events), len(parsed.Events))
	}

	for i := range generated.Events {
		g, p := generated.Events[i], parsed.Events[i]
		if g.Start != p.Start || g.End != p.End {
			t.Errorf("event %d: expected %v-%v, got %v-%v", i, g.Start, g.End, p.Start, p.End)
		}
		if g.PreRoll != p.PreRoll {
			t.Errorf("event %d: expected pre-roll %v, got %v", i, g.PreRoll, p.PreRoll)
		}
		if !reflect.DeepEqual(g.Tags, p.Tags) {
			t.Errorf("event %d: tags differ: got %v, want %v", i, p.Tags, g.Tags)
		}
		if len(g.Syllables) != len(p.Syllables) {
			t.Fatalf("event %d: expected %d syllables, got %d", i, len(g.Syllables), len(p.Syllables))
		}
		for j := range g.Syllables {
			if g.Syllables[j].Text != p.Syllables[j].Text ||
				g.Syllables[j].Duration != p.Syllables[j].Duration {
				t.Errorf("event %d syllable %d: expected %+v, got %+v", i, j, g.Syllables[j], p.Syllables[j])
			}
		}
	}

	first := parsed.Events[0]
	if first.Start != 0 || first.End != ms(3000) {
		t.Errorf("expected first line 0-3s, got %v-%v", first.Start, first.End)
	}
	if first.Text() != "Hello world" {
		t.Errorf("expected 'Hello world', got %q", first.Text())
	}
}

func TestGenerateLineRules(t *testing.T) {
	events := []timing.Event{
		// single word with no duration gets the fallback window
		{Group: "a", Syllables: []timing.Syllable{{Text: "Solo", Start: ms(10000)}}},
		// blank only, dropped
		{Group: "b", Syllables: []timing.Syllable{{Text: "  ", Start: ms(12000), Duration: ms(100)}}},
		// blank syllables merge into their neighbours
		{Group: "c", Syllables: []timing.Syllable{
			{Text: " ", Start: ms(14000)},
			{Text: "one", Start: ms(14200)},
			{Text: " ", Start: ms(14500)},
			{Text: "two", Start: ms(14500), Duration: ms(300)},
		}},
	}

	opts := DefaultGenerateOptions()
	opts.CountdownFrom = 0

	script, err := Generate(events, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(script.Events) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(script.Events))
	}

	solo := script.Events[0]
	if solo.End != ms(10000+500+1000) {
		t.Errorf("expected fallback end 11.5s, got %v", solo.End)
	}
	if solo.Syllables[0].Duration != ms(500) {
		t.Errorf("expected 500ms syllable, got %v", solo.Syllables[0].Duration)
	}

	merged := script.Events[1]
	if len(merged.Syllables) != 2 {
		t.Fatalf("expected 2 syllables, got %+v", merged.Syllables)
	}
	if merged.Syllables[0].Text != "one " || merged.Syllables[1].Text != "two" {
		t.Errorf("unexpected merge result: %+v", merged.Syllables)
	}
	if merged.PreRoll != ms(1200) {
		t.Errorf("expected leading blank folded into pre-roll, got %v", merged.PreRoll)
	}
}

func TestGenerateSlotsRoundRobin(t *testing.T) {
	var events []timing.Event
	for i := 0; i < 5; i++ {
		events = append(events, timing.Event{
			Group:     "g" + strconv.Itoa(i),
			Syllables: []timing.Syllable{{Text: "x", Start: ms(10000 + i*1000), Duration: ms(500)}},
		})
	}

	opts := DefaultGenerateOptions()
	opts.CountdownFrom = 0

	script, err := Generate(events, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	wantY := []float64{180, 228, 276, 324, 180}
	for i, e := range script.Events {
		pos, ok := e.Position()
		if !ok {
			t.Fatalf("event %d has no position", i)
		}
		if pos.X != 640 || pos.Y != wantY[i] {
			t.Errorf("event %d: expected (640,%v), got (%v,%v)", i, wantY[i], pos.X, pos.Y)
		}
	}
}

func TestGenerateWithoutPadding(t *testing.T) {
	events := []timing.Event{
		{Group: "1", Syllables: []timing.Syllable{{Text: "Hi", Start: ms(2000), Duration: ms(500)}}},
	}

	opts := DefaultGenerateOptions()
	opts.Padding = 0
	opts.CountdownFrom = 0

	script, err := Generate(events, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := `{\r\1c&H00FF00&\pos(640,180)}{\k50}Hi`
	if script.Events[0].RawText != want {
		t.Errorf("expected %q, got %q", want, script.Events[0].RawText)
	}
}

func TestGenerateShortensPreRollAtZero(t *testing.T) {
	events := []timing.Event{
		{Group: "1", Syllables: []timing.Syllable{
			{Text: "Early", Start: ms(500), Duration: ms(400)},
			{Text: " bird", Start: ms(900), Duration: ms(300)},
		}},
	}

	generated, err := Generate(events, DefaultGenerateOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	parsed := ParseString(generated.String(), nil)
	if len(parsed.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(parsed.Events))
	}

	e := parsed.Events[0]
	if e.Start != 0 || e.PreRoll != ms(500) {
		t.Errorf("expected start 0 with 500ms pre-roll, got %v and %v", e.Start, e.PreRoll)
	}
	// the first word still lights up at its own start time
	if got := e.Start + e.PreRoll; got != ms(500) {
		t.Errorf("expected first word highlighted at 500ms, got %v", got)
	}
	if !strings.HasPrefix(generated.Events[0].RawText, `{\k50\r`) {
		t.Errorf("unexpected raw text %q", generated.Events[0].RawText)
	}

	// a word at 0 leaves no pre-roll at all
	events[0].Syllables[0].Start = 0
	generated, err = Generate(events, DefaultGenerateOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got := generated.Events[0]; got.PreRoll != 0 || !strings.HasPrefix(got.RawText, `{\r`) {
		t.Errorf("expected no pre-roll, got %v %q", got.PreRoll, got.RawText)
	}
}

func TestGenerateInvalidHighlight(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.HighlightColor = "green"

	if _, err := Generate(nil, opts); err == nil {
		t.Fatal("expected error for invalid colour")
	}
}

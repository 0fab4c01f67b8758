package source

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/kara/internal/logging"
	"github.com/mgpai22/kara/internal/textenc"
	"github.com/mgpai22/kara/internal/timing"
)

var (
	// LRC timestamp pattern: [mm:ss.xx] or [mm:ss:xx]
	lrcTimeRegex = regexp.MustCompile(`^\[(\d{1,3}):(\d{2})(?:[.:](\d{1,3}))?\]`)
	// enhanced word stamp: <mm:ss.xx>
	lrcWordRegex = regexp.MustCompile(`<(\d{1,3}):(\d{2})(?:[.:](\d{1,3}))?>`)
	// metadata tags pattern: [tag:value]
	lrcMetaRegex = regexp.MustCompile(`^\[([a-zA-Z]+):([^\]]*)\]$`)
)

const (
	// how long the last line stays when nothing follows it
	lrcLastLineLength = 5 * time.Second
	lrcPadding        = 150 * time.Millisecond
	lrcHighlight      = "&HFFFFFF&"
)

type lrcLine struct {
	start time.Duration
	text  string
}

// ReadLRC parses LRC lyrics, including multiple stamps per line and
// enhanced <mm:ss.xx> word stamps. Lines without word stamps are split on
// spaces with the line duration spread evenly over the words.
func ReadLRC(data []byte, logger *logging.Logger) (*Song, error) {
	text, err := textenc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode lrc: %w", err)
	}

	padding := lrcPadding
	song := &Song{
		Hints: Hints{Padding: &padding, HighlightColor: lrcHighlight},
	}

	var (
		lines  []lrcLine
		offset time.Duration
	)

	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		if m := lrcMetaRegex.FindStringSubmatch(raw); m != nil && !lrcTimeRegex.MatchString(raw) {
			value := strings.TrimSpace(m[2])
			switch strings.ToLower(m[1]) {
			case "ar":
				song.Artist = value
			case "ti":
				song.Title = value
			case "offset":
				if v, err := strconv.Atoi(strings.TrimPrefix(value, "+")); err == nil {
					offset = time.Duration(v) * time.Millisecond
				}
			default:
				logger.Debugw("Unhandled lrc tag", "tag", m[1])
			}
			continue
		}

		var stamps []time.Duration
		rest := raw
		for {
			m := lrcTimeRegex.FindStringSubmatch(rest)
			if m == nil {
				break
			}
			stamps = append(stamps, lrcTime(m[1], m[2], m[3]))
			rest = rest[len(m[0]):]
		}

		for _, s := range stamps {
			lines = append(lines, lrcLine{start: s, text: strings.TrimSpace(rest)})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].start < lines[j].start
	})

	for i, line := range lines {
		end := line.start + lrcLastLineLength
		if i+1 < len(lines) {
			end = lines[i+1].start
		}

		syllables := lrcSyllables(line, end)
		if len(syllables) == 0 {
			continue
		}

		for j := range syllables {
			syllables[j].Start = shift(syllables[j].Start, offset)
		}

		song.Events = append(song.Events, timing.Event{
			Group:     "line" + strconv.Itoa(i+1),
			Syllables: syllables,
		})
	}

	if len(song.Events) == 0 {
		return nil, fmt.Errorf("%w: no timed lyric lines", ErrUnresolvedTimingSource)
	}

	return song, nil
}

func lrcSyllables(line lrcLine, end time.Duration) []timing.Syllable {
	if strings.TrimSpace(lrcWordRegex.ReplaceAllString(line.text, "")) == "" {
		return nil
	}

	if lrcWordRegex.MatchString(line.text) {
		return lrcEnhanced(line, end)
	}

	words := strings.Fields(line.text)
	each := (end - line.start) / time.Duration(len(words))
	if each < 0 {
		each = 0
	}

	syllables := make([]timing.Syllable, len(words))
	for i, w := range words {
		if i < len(words)-1 {
			w += " "
		}
		syllables[i] = timing.Syllable{
			Text:     w,
			Start:    line.start + time.Duration(i)*each,
			Duration: each,
		}
	}
	return syllables
}

// lrcEnhanced splits a line at its word stamps. Text before the first stamp
// starts with the line; a trailing stamp with no text marks the line end.
func lrcEnhanced(line lrcLine, end time.Duration) []timing.Syllable {
	var syllables []timing.Syllable

	matches := lrcWordRegex.FindAllStringSubmatchIndex(line.text, -1)
	if lead := line.text[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		syllables = append(syllables, timing.Syllable{Text: lead, Start: line.start})
	}

	for i, m := range matches {
		start := lrcTime(line.text[m[2]:m[3]], line.text[m[4]:m[5]], submatch(line.text, m, 6))

		textEnd := len(line.text)
		if i+1 < len(matches) {
			textEnd = matches[i+1][0]
		}
		word := line.text[m[1]:textEnd]

		if word == "" {
			if i == len(matches)-1 && start > line.start {
				end = start
			}
			continue
		}

		syllables = append(syllables, timing.Syllable{Text: word, Start: start})
	}

	timing.FillDurations(syllables, end)
	return syllables
}

func submatch(s string, m []int, i int) string {
	if m[i] < 0 {
		return ""
	}
	return s[m[i]:m[i+1]]
}

// lrcTime converts minutes, seconds and an optional 1-3 digit fraction.
func lrcTime(min, sec, frac string) time.Duration {
	minutes, _ := strconv.Atoi(min)
	seconds, _ := strconv.Atoi(sec)

	var millis int
	if frac != "" {
		millis, _ = strconv.Atoi(frac)
		switch len(frac) {
		case 1:
			millis *= 100
		case 2:
			millis *= 10
		}
	}

	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
}

// shift applies an LRC offset; a positive offset shows lyrics earlier.
func shift(t, offset time.Duration) time.Duration {
	t -= offset
	if t < 0 {
		return 0
	}
	return t
}

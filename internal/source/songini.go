package source

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/mgpai22/kara/internal/logging"
	"github.com/mgpai22/kara/internal/textenc"
	"github.com/mgpai22/kara/internal/timing"
)

var (
	textKeyRegex  = regexp.MustCompile(`^text\d+$`)
	syncKeyRegex  = regexp.MustCompile(`^sync\d+$`)
	trackKeyRegex = regexp.MustCompile(`^track\d+`)
	spacesRegex   = regexp.MustCompile(` {2,}`)
)

// KFN timing values are centiseconds
const kfnTimeUnit = 10 * time.Millisecond

// placeholder keeping word-final spaces through the split
const spaceSentinel = "#"

// ReadSongIni reads the Song.ini stored in a KFN archive. Section and key
// names are matched case-insensitively.
func ReadSongIni(data []byte, logger *logging.Logger) (*Song, error) {
	text, err := textenc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Song.ini: %w", err)
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		Insensitive:             true,
		IgnoreInlineComment:     true,
		IgnoreContinuation:      true,
		SkipUnrecognizableLines: true,
	}, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Song.ini: %w", err)
	}

	song := &Song{}

	if general, err := cfg.GetSection("general"); err == nil {
		song.Title = general.Key("title").String()
		song.Artist = general.Key("artist").String()
		song.Year = general.Key("year").String()
	}

	song.Tracks = songIniTracks(cfg)

	effect := lyricsEffect(cfg)
	if effect == nil {
		return nil, fmt.Errorf("%w: no effect section with insync=1", ErrUnresolvedTimingSource)
	}

	events, err := effectEvents(effect)
	if err != nil {
		return nil, err
	}
	song.Events = events

	logger.Debugw("Read Song.ini",
		"effect", effect.Name(),
		"lines", len(events),
		"tracks", len(song.Tracks),
	)

	return song, nil
}

// lyricsEffect returns the first eff* section flagged insync=1.
func lyricsEffect(cfg *ini.File) *ini.Section {
	for _, sec := range cfg.Sections() {
		if !strings.HasPrefix(sec.Name(), "eff") {
			continue
		}
		if strings.TrimSpace(sec.Key("insync").String()) == "1" {
			return sec
		}
	}
	return nil
}

type kfnWord struct {
	group string
	text  string
}

func effectEvents(effect *ini.Section) ([]timing.Event, error) {
	var (
		words   []kfnWord
		timings []time.Duration
	)

	for _, key := range effect.Keys() {
		switch {
		case textKeyRegex.MatchString(key.Name()):
			line := strings.TrimSpace(spacesRegex.ReplaceAllString(key.String(), " "))
			if line == "" {
				continue
			}
			for _, w := range splitWords(line) {
				words = append(words, kfnWord{group: key.Name(), text: w})
			}
		case syncKeyRegex.MatchString(key.Name()):
			timings = append(timings, parseSync(key.String())...)
		}
	}

	if len(words) != len(timings) {
		return nil, fmt.Errorf("%w: %d timings for %d words", ErrTimingMismatch, len(timings), len(words))
	}

	var events []timing.Event
	indexes := make(map[string]int)

	for i, w := range words {
		syllable := timing.Syllable{
			Text:  strings.ReplaceAll(w.text, "_", " "),
			Start: timings[i],
		}
		idx, ok := indexes[w.group]
		if !ok {
			idx = len(events)
			indexes[w.group] = idx
			events = append(events, timing.Event{Group: w.group})
		}
		events[idx].Syllables = append(events[idx].Syllables, syllable)
	}

	// the last word of a line has no following start to measure against
	for i := range events {
		syllables := events[i].Syllables
		timing.FillDurations(syllables, syllables[len(syllables)-1].Start)
	}

	return events, nil
}

// splitWords breaks a lyric line on spaces and syllable slashes. Spaces stay
// attached to the end of the word before them.
func splitWords(line string) []string {
	line = strings.ReplaceAll(line, " ", spaceSentinel+" ")

	var words []string
	for _, w := range strings.Split(line, " ") {
		for _, part := range strings.Split(w, "/") {
			words = append(words, strings.Replace(part, spaceSentinel, " ", 1))
		}
	}
	return words
}

// parseSync reads a comma separated list of centisecond values. Zero and
// unparseable values are dropped.
func parseSync(value string) []time.Duration {
	var out []time.Duration
	for _, part := range strings.Split(value, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v == 0 {
			continue
		}
		out = append(out, time.Duration(v)*kfnTimeUnit)
	}
	return out
}

func songIniTracks(cfg *ini.File) []timing.Track {
	var tracks []timing.Track

	if music, err := cfg.GetSection("mp3music"); err == nil {
		for _, key := range music.Keys() {
			if !trackKeyRegex.MatchString(key.Name()) {
				continue
			}
			fields := strings.Split(key.String(), ",")
			fileName := strings.TrimSpace(fields[0])
			if fileName == "" {
				continue
			}
			var name string
			if len(fields) > 3 {
				name = strings.TrimSpace(fields[3])
			}

			role := trackRole(fileName)
			tracks = append(tracks, timing.Track{
				FileName:   fileName,
				Name:       trackName(role, name),
				Role:       role,
				Toggleable: true,
			})
		}
	}

	leads := 0
	for _, t := range tracks {
		if t.Role == timing.RoleLead {
			leads++
		}
	}
	if leads > 1 {
		// several lead takes usually include a pre-mixed one
		kept := tracks[:0]
		for _, t := range tracks {
			if !strings.Contains(t.FileName, "mixed") {
				kept = append(kept, t)
			}
		}
		tracks = kept
	}

	if general, err := cfg.GetSection("general"); err == nil {
		fields := strings.Split(general.Key("source").String(), ",")
		if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
			tracks = append(tracks, timing.Track{
				FileName: strings.TrimSpace(fields[2]),
				Name:     "General",
				Role:     timing.RoleInstrumental,
			})
		}
	}

	return tracks
}

func trackRole(fileName string) timing.Role {
	lower := strings.ToLower(fileName)
	switch {
	case strings.HasPrefix(lower, "ld"):
		return timing.RoleLead
	case strings.HasPrefix(lower, "bv"):
		return timing.RoleBacking
	default:
		return timing.RoleUnknown
	}
}

func trackName(role timing.Role, name string) string {
	switch role {
	case timing.RoleBacking:
		return "Backing Vocals"
	case timing.RoleLead:
		if name != "" {
			return "Lead vocals [" + name + "]"
		}
		return "Lead vocals"
	default:
		return string(role)
	}
}

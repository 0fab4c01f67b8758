package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/kara/internal/logging"
	"github.com/mgpai22/kara/internal/textenc"
	"github.com/mgpai22/kara/internal/timing"
)

// note kinds that carry a syllable: normal, golden, freestyle, rap, golden rap
var ultraStarNoteTypes = map[string]bool{
	":": true,
	"*": true,
	"F": true,
	"R": true,
	"G": true,
}

// UltraStar holds the header fields of a note file that have no place in
// Song.
type UltraStar struct {
	BPM        float64
	BeatLength time.Duration
	Gap        time.Duration
	Audio      string
	Vocals     string
	Instrument string
	Cover      string
	Creator    string
	Video      string
}

// ReadUltraStar parses an UltraStar note file. Notes become syllables and
// phrases become events; reading stops at the "E" line.
func ReadUltraStar(data []byte, logger *logging.Logger) (*Song, *UltraStar, error) {
	text, err := textenc.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode note file: %w", err)
	}

	song := &Song{}
	us := &UltraStar{}

	var (
		events  []timing.Event
		current timing.Event
		end     time.Duration
		notes   int
		lineNum int
	)

	flush := func() {
		if len(current.Syllables) > 0 {
			events = append(events, current)
		}
		current = timing.Event{Group: "phrase" + strconv.Itoa(len(events)+1)}
	}
	flush()

	for _, raw := range strings.Split(text, "\n") {
		lineNum++
		line := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if line == "" {
			continue
		}
		if line == "E" {
			break
		}

		if strings.HasPrefix(line, "#") {
			if err := us.header(song, line[1:], logger); err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			continue
		}

		parts := splitNoteLine(line)
		kind := parts[0]

		if len(parts) < 5 || parts[4] == "" {
			if kind == "-" || ultraStarNoteTypes[kind] {
				flush()
			}
			continue
		}
		if !ultraStarNoteTypes[kind] {
			logger.Debugw("Skipping note line", "line", lineNum, "type", kind)
			continue
		}
		if us.BeatLength == 0 {
			return nil, nil, fmt.Errorf("%w: note before BPM on line %d", ErrUnresolvedTimingSource, lineNum)
		}

		startBeat, errStart := strconv.Atoi(parts[1])
		length, errLength := strconv.Atoi(parts[2])
		if errStart != nil || errLength != nil {
			logger.Warnw("Skipping malformed note", "line", lineNum)
			continue
		}

		note := timing.Syllable{
			Text:     parts[4],
			Start:    us.Gap + time.Duration(startBeat)*us.BeatLength,
			Duration: time.Duration(length) * us.BeatLength,
		}
		current.Syllables = append(current.Syllables, note)
		end = note.End()
		notes++
	}
	flush()

	if us.BeatLength == 0 {
		return nil, nil, fmt.Errorf("%w: missing or invalid BPM", ErrUnresolvedTimingSource)
	}
	if notes == 0 {
		return nil, nil, fmt.Errorf("%w: no notes", ErrUnresolvedTimingSource)
	}

	song.Events = events
	song.Duration = end
	song.Tracks = us.tracks()

	return song, us, nil
}

func (us *UltraStar) header(song *Song, attr string, logger *logging.Logger) error {
	key, value, _ := strings.Cut(attr, ":")
	key = strings.ToUpper(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch key {
	case "TITLE":
		song.Title = value
	case "ARTIST":
		song.Artist = value
	case "LANGUAGE":
		song.Language = splitList(value)
	case "GENRE":
		song.Genre = splitList(value)
	case "YEAR":
		song.Year = value
	case "MP3", "AUDIO":
		us.Audio = value
	case "VOCALS":
		us.Vocals = value
	case "INSTRUMENTAL":
		us.Instrument = value
	case "BPM":
		bpm, err := parseDecimal(value)
		if err != nil || bpm <= 0 {
			return fmt.Errorf("%w: invalid BPM %q", ErrUnresolvedTimingSource, value)
		}
		us.BPM = bpm
		us.BeatLength = time.Duration(math.Round(60000/(bpm*4))) * time.Millisecond
	case "GAP":
		gap, err := parseDecimal(value)
		if err != nil {
			return fmt.Errorf("invalid GAP %q", value)
		}
		us.Gap = time.Duration(gap * float64(time.Millisecond))
	case "COVER":
		us.Cover = value
	case "CREATOR":
		us.Creator = value
	case "VIDEO":
		us.Video = value
	default:
		logger.Debugw("Unhandled attribute", "key", key)
	}
	return nil
}

func (us *UltraStar) tracks() []timing.Track {
	var tracks []timing.Track

	if us.Audio != "" {
		role := timing.RoleUnknown
		if us.Vocals != "" && us.Instrument == "" {
			role = timing.RoleInstrumental
		}
		tracks = append(tracks, timing.Track{FileName: us.Audio, Name: "main", Role: role})
	}
	if us.Vocals != "" {
		tracks = append(tracks, timing.Track{
			FileName:   us.Vocals,
			Name:       "Lead vocals",
			Role:       timing.RoleLead,
			Toggleable: true,
		})
	}
	if us.Instrument != "" {
		tracks = append(tracks, timing.Track{
			FileName: us.Instrument,
			Name:     "Instrumental",
			Role:     timing.RoleInstrumental,
		})
	}

	return tracks
}

// splitNoteLine splits on the first four spaces only; the fifth field is the
// syllable text and keeps its own spaces.
func splitNoteLine(line string) []string {
	parts := make([]string, 0, 5)
	rest := line
	for len(parts) < 4 {
		idx := strings.IndexByte(rest, ' ')
		if idx < 0 {
			break
		}
		parts = append(parts, rest[:idx])
		rest = rest[idx+1:]
	}
	return append(parts, rest)
}

// parseDecimal accepts both "120.5" and "120,5".
func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

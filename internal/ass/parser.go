package ass

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/kara/internal/logging"
)

type section int

const (
	sectionNone section = iota
	sectionInfo
	sectionStyles
	sectionEvents
)

// ParseFile reads and parses the script at path.
func ParseFile(path string, logger *logging.Logger) (*Script, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Parse(file, logger)
}

// ParseString parses an in-memory script.
func ParseString(content string, logger *logging.Logger) *Script {
	script, _ := Parse(strings.NewReader(content), logger)
	return script
}

// Parse reads a script in one forward pass. Malformed style and event lines
// are skipped and recorded in Script.Skipped; the only error returned comes
// from reading r.
func Parse(r io.Reader, logger *logging.Logger) (*Script, error) {
	script := &Script{
		PlayResX: DefaultPlayResX,
		PlayResY: DefaultPlayResY,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	current := sectionNone
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			current = sectionFor(trimmed[1 : len(trimmed)-1])
			continue
		}

		switch current {
		case sectionInfo:
			script.parseInfoLine(trimmed)
		case sectionStyles:
			content, ok := cutPrefixFold(trimmed, "Style:")
			if !ok {
				continue
			}
			style, err := parseStyle(strings.TrimSpace(content))
			if err != nil {
				script.skip(lineNum, trimmed, err, logger)
				continue
			}
			script.Styles = append(script.Styles, style)
		case sectionEvents:
			content, ok := cutPrefixFold(trimmed, "Dialogue:")
			if !ok {
				continue
			}
			event, err := parseEvent(strings.TrimSpace(content))
			if err != nil {
				script.skip(lineNum, trimmed, err, logger)
				continue
			}
			script.Events = append(script.Events, event)
		}
	}

	if err := scanner.Err(); err != nil {
		return script, fmt.Errorf("error reading script: %w", err)
	}

	return script, nil
}

func sectionFor(name string) section {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "script info":
		return sectionInfo
	case "v4+ styles", "v4 styles", "v4 styles+":
		return sectionStyles
	case "events":
		return sectionEvents
	default:
		return sectionNone
	}
}

func (s *Script) skip(lineNum int, text string, err error, logger *logging.Logger) {
	lineErr := &LineError{Line: lineNum, Text: text, Err: err}
	s.Skipped = append(s.Skipped, lineErr)
	logger.Warnw("Skipping malformed script line",
		"line", lineNum,
		"error", err,
	)
}

func (s *Script) parseInfoLine(line string) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch strings.ToLower(key) {
	case "playresx":
		if v, err := strconv.Atoi(value); err == nil {
			s.PlayResX = v
		}
	case "playresy":
		if v, err := strconv.Atoi(value); err == nil {
			s.PlayResY = v
		}
	default:
		s.Info = append(s.Info, InfoField{Key: key, Value: value})
	}
}

func parseEvent(content string) (Event, error) {
	parts := strings.Split(content, ",")
	if len(parts) < eventFieldCount {
		return Event{}, fmt.Errorf(
			"%w: event has %d fields, need %d",
			ErrMalformedLine,
			len(parts),
			eventFieldCount,
		)
	}

	start, err := ParseTimestamp(parts[1])
	if err != nil {
		return Event{}, fmt.Errorf("%w: start: %v", ErrMalformedLine, err)
	}
	end, err := ParseTimestamp(parts[2])
	if err != nil {
		return Event{}, fmt.Errorf("%w: end: %v", ErrMalformedLine, err)
	}

	text := strings.Join(parts[eventFieldCount-1:], ",")
	tags, syllables, preRoll := parseDialogueText(text)

	return Event{
		Layer:     atoi(parts[0]),
		Start:     start,
		End:       end,
		Style:     strings.TrimSpace(parts[3]),
		Name:      strings.TrimSpace(parts[4]),
		MarginL:   atoi(parts[5]),
		MarginR:   atoi(parts[6]),
		MarginV:   atoi(parts[7]),
		Effect:    strings.TrimSpace(parts[8]),
		Tags:      tags,
		Syllables: syllables,
		PreRoll:   preRoll,
		RawText:   text,
	}, nil
}

// parseDialogueText splits event text into global tags and syllables.
// Overrides before the first karaoke tag apply to the line; after it they
// belong to the syllable being accumulated. A leading blank syllable is the
// pre-roll and its tags become global.
func parseDialogueText(text string) ([]Tag, []Syllable, time.Duration) {
	var (
		globals    []Tag
		syllables  []Syllable
		duration   time.Duration
		tags       []Tag
		current    strings.Builder
		hasKaraoke bool
	)

	rest := text
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		closeIdx := strings.IndexByte(rest[open:], '}')
		if closeIdx < 0 {
			break
		}
		closeIdx += open

		current.WriteString(rest[:open])
		block := rest[open+1 : closeIdx]
		rest = rest[closeIdx+1:]

		for _, raw := range strings.Split(block, "\\") {
			if raw == "" {
				continue
			}
			tag := parseTag(raw)

			if k, ok := tag.(KaraokeTag); ok {
				hasKaraoke = true
				if strings.TrimSpace(current.String()) != "" || duration > 0 {
					syllables = append(syllables, Syllable{
						Duration: duration,
						Text:     current.String(),
						Tags:     tags,
					})
				}
				duration = k.Duration
				current.Reset()
				tags = nil
				continue
			}

			if hasKaraoke {
				tags = append(tags, tag)
			} else {
				globals = append(globals, tag)
			}
		}
	}
	current.WriteString(rest)

	if hasKaraoke {
		if strings.TrimSpace(current.String()) != "" || duration > 0 || len(syllables) > 0 {
			syllables = append(syllables, Syllable{
				Duration: duration,
				Text:     current.String(),
				Tags:     tags,
			})
		}
	} else if current.Len() > 0 {
		syllables = append(syllables, Syllable{Text: current.String()})
	}

	var preRoll time.Duration
	if len(syllables) > 0 && strings.TrimSpace(syllables[0].Text) == "" {
		globals = append(globals, syllables[0].Tags...)
		preRoll = syllables[0].Duration
		syllables = syllables[1:]
	}

	for i := range syllables {
		syllables[i].Text = unescapeText(syllables[i].Text)
	}

	return globals, syllables, preRoll
}

func unescapeText(s string) string {
	s = strings.ReplaceAll(s, `\N`, "\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\h`, " ")
	return s
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

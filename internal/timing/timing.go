// Package timing holds the format-agnostic lyric timing model that every
// source reader produces and the script generator consumes.
package timing

import (
	"strings"
	"time"
)

// role of an audio track inside a song
type Role string

const (
	RoleLead         Role = "LEAD"
	RoleBacking      Role = "BACKING_VOCALS"
	RoleInstrumental Role = "INSTRUMENTAL"
	RoleUnknown      Role = "UNKNOWN"
)

// Track describes one audio file belonging to a song.
type Track struct {
	FileName   string
	Name       string
	Role       Role
	Toggleable bool
}

// Syllable is the smallest timed unit of a lyric line. Start is absolute
// from the beginning of the song.
type Syllable struct {
	Text     string
	Start    time.Duration
	Duration time.Duration
}

func (s Syllable) End() time.Duration {
	return s.Start + s.Duration
}

// Event is one lyric line: syllables sharing a group id.
type Event struct {
	Group     string
	PreRoll   time.Duration
	Syllables []Syllable
}

// Start returns the moment the line appears, i.e. the first syllable start
// minus the pre-roll.
func (e Event) Start() time.Duration {
	if len(e.Syllables) == 0 {
		return 0
	}
	return e.Syllables[0].Start - e.PreRoll
}

// Duration is the pre-roll plus every syllable duration.
func (e Event) Duration() time.Duration {
	total := e.PreRoll
	for _, s := range e.Syllables {
		total += s.Duration
	}
	return total
}

// Text joins the syllables without separators.
func (e Event) Text() string {
	var sb strings.Builder
	for _, s := range e.Syllables {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// HasText reports whether at least one syllable carries non-blank text.
func (e Event) HasText() bool {
	for _, s := range e.Syllables {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}

// FillDurations sets each syllable's duration to the gap until the next
// syllable start. The last syllable runs until end. Negative gaps clamp to
// zero.
func FillDurations(syllables []Syllable, end time.Duration) {
	for i := range syllables {
		next := end
		if i+1 < len(syllables) {
			next = syllables[i+1].Start
		}
		d := next - syllables[i].Start
		if d < 0 {
			d = 0
		}
		syllables[i].Duration = d
	}
}

package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/kara/internal/ass"
)

const karaokeScript = `[Script Info]
Title: Test Song
PlayResX: 1280
PlayResY: 720

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,IMPACT,48,&H00FFFFFF,&H00FFFFFF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1
Style: Countdown,Arial Black,80,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,5,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:00.50,0:00:01.50,Countdown,,0,0,0,,{\pos(640,360)\fad(300,300)}1
Dialogue: 0,0:00:01.50,0:00:04.25,Default,,0,0,0,,{\k100\r\1c&H00FF00&\pos(640,180)}{\k50}Hel{\k50}lo{\k75} world
Dialogue: 0,0:00:05.00,0:00:07.00,Default,,0,0,0,,{\k50}Two{\k50}\Nlines
Dialogue: 0,0:00:08.00,0:00:09.00,Default,,0,0,0,,{\pos(640,180)}
`

func TestFromScript(t *testing.T) {
	script := ass.ParseString(karaokeScript, nil)

	sub := FromScript(script, ExportOptions{})
	if sub.Title != "Test Song" {
		t.Errorf("expected title, got %q", sub.Title)
	}
	if len(sub.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", sub.Entries)
	}

	first := sub.Entries[0]
	if first.Index != 1 || first.Text != "Hello world" {
		t.Errorf("unexpected first entry %+v", first)
	}
	if first.StartTime != 1500*time.Millisecond || first.EndTime != 4250*time.Millisecond {
		t.Errorf("unexpected first window %v-%v", first.StartTime, first.EndTime)
	}
	if sub.Entries[1].Text != "Two\nlines" {
		t.Errorf("expected line break kept, got %q", sub.Entries[1].Text)
	}

	withCountdown := FromScript(script, ExportOptions{IncludeCountdown: true})
	if len(withCountdown.Entries) != 3 || withCountdown.Entries[0].Text != "1" {
		t.Errorf("expected countdown cue first, got %+v", withCountdown.Entries)
	}
}

func TestEncode(t *testing.T) {
	sub := &Subtitle{
		Title: "Test Song",
		Entries: []Entry{
			{Index: 1, StartTime: 1500 * time.Millisecond, EndTime: 4250 * time.Millisecond, Text: "Hello world"},
			{Index: 2, StartTime: time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, EndTime: time.Hour + 3*time.Minute, Text: "Two\nlines"},
		},
	}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatSRT, "1\n00:00:01,500 --> 00:00:04,250\nHello world\n\n" +
			"2\n01:02:03,004 --> 01:03:00,000\nTwo\nlines\n\n"},
		{FormatVTT, "WEBVTT - Test Song\n\n" +
			"1\n00:00:01.500 --> 00:00:04.250\nHello world\n\n" +
			"2\n01:02:03.004 --> 01:03:00.000\nTwo\nlines\n\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			w, err := NewWriter(tt.format)
			if err != nil {
				t.Fatalf("NewWriter failed: %v", err)
			}

			var sb strings.Builder
			if err := w.Encode(sub, &sb); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if sb.String() != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", sb.String(), tt.want)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "lyrics.vtt")
	sub := &Subtitle{Entries: []Entry{{Index: 1, EndTime: time.Second, Text: "Hi"}}}

	if err := WriteFile(sub, GetFormatFromExtension(path), path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "WEBVTT\n\n1\n") {
		t.Errorf("unexpected output %q", data)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"srt", FormatSRT, false},
		{".VTT", FormatVTT, false},
		{"ass", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}

	if GetExtensionForFormat(FormatVTT) != ".vtt" || GetExtensionForFormat(FormatSRT) != ".srt" {
		t.Error("unexpected extensions")
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/kara/internal/ass"
	"github.com/mgpai22/kara/internal/render"
)

const testScript = "[Script Info]\n" +
	"Title: CLI Test\n" +
	"PlayResX: 1280\n" +
	"PlayResY: 720\n" +
	"[V4+ Styles]\n" +
	"Style: Default,IMPACT,48,&H00FFFFFF,&H00FFFFFF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n" +
	"Style: Countdown,Arial Black,80,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,5,10,10,10,1\n" +
	"[Events]\n" +
	"Dialogue: 0,0:00:00.00,0:00:01.00,Countdown,,0,0,0,,{\\pos(640,360)\\fad(300,300)}1\n" +
	"Dialogue: 0,0:00:01.00,0:00:04.00,Default,,0,0,0,,{\\k100\\r\\1c&H00FF00&\\pos(640,180)}{\\k50}Hel{\\k50}lo{\\k100} you\n"

func TestParseAt(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"12.5s", 12500 * time.Millisecond, false},
		{"1m3s", 63 * time.Second, false},
		{"0:01:03.50", 63500 * time.Millisecond, false},
		{"-1s", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAt(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAt(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseAt(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseViewport(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"1920x1080", 1920, 1080, false},
		{"800X600", 800, 600, false},
		{"1920", 0, 0, true},
		{"0x100", 0, 0, true},
		{"axb", 0, 0, true},
	}

	for _, tt := range tests {
		w, h, err := parseViewport(tt.in)
		if (err != nil) != tt.wantErr || w != tt.w || h != tt.h {
			t.Errorf("parseViewport(%q) = %d, %d, %v", tt.in, w, h, err)
		}
	}
}

func TestBuildFrameReport(t *testing.T) {
	script := ass.ParseString(testScript, nil)
	transform := render.Viewport(1280, 720, 1920, 1080)

	report := buildFrameReport(script, 2500*time.Millisecond, &transform)
	if report.At != "0:00:02.50" {
		t.Errorf("unexpected at %q", report.At)
	}
	if len(report.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(report.Events))
	}

	e := report.Events[0]
	// 1s pre-roll then 0.5s per syllable, 1.5s in is the second syllable
	if e.ActiveSyllable != 1 || e.Style != "Default" || e.Start != "0:00:01.00" {
		t.Errorf("unexpected event %+v", e)
	}
	if e.ScreenX != 960 || e.ScreenY != 270 {
		t.Errorf("expected scaled position (960, 270), got (%v, %v)", e.ScreenX, e.ScreenY)
	}
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("kara %s failed: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestFrameCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lyrics.ass")
	if err := os.WriteFile(path, []byte(testScript), 0o644); err != nil {
		t.Fatal(err)
	}

	out := runCommand(t, "frame", path, "--at", "0.5s")

	var report struct {
		At     string `json:"at"`
		Events []struct {
			Text    string   `json:"text"`
			Style   string   `json:"style"`
			Opacity float64  `json:"opacity"`
			Colors  []string `json:"colors"`
		} `json:"events"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}

	if len(report.Events) != 1 || report.Events[0].Text != "1" || report.Events[0].Style != "Countdown" {
		t.Fatalf("expected the countdown, got %+v", report.Events)
	}
	if report.Events[0].Opacity != 1 {
		t.Errorf("expected full opacity mid countdown, got %v", report.Events[0].Opacity)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lyrics.ass")
	if err := os.WriteFile(path, []byte(testScript), 0o644); err != nil {
		t.Fatal(err)
	}

	out := runCommand(t, "export", path, "-f", "srt", "-o", "-")

	want := "1\n00:00:01,000 --> 00:00:04,000\nHello you\n\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

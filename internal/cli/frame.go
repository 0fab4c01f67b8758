package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kara/internal/ass"
	"github.com/mgpai22/kara/internal/render"
)

var frameCmd = &cobra.Command{
	Use:   "frame [lyrics.ass]",
	Short: "Print what a karaoke script shows at a given time",
	Long: `Compute the render state of a script at one instant: the visible lines,
the syllable being sung, per-syllable colours, fade opacity and anchor
position. The result is printed as JSON.

The time accepts Go durations (12.5s, 1m3s) or script timestamps (0:01:03.50).

Examples:
  kara frame lyrics.ass --at 12.5s
  kara frame lyrics.ass --at 0:01:03.50 --viewport 1920x1080`,
	Args: cobra.ExactArgs(1),
	RunE: runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)

	frameCmd.Flags().String("at", "0s", "Playback time to inspect")
	frameCmd.Flags().String("viewport", "", "Map positions onto a WIDTHxHEIGHT screen")
}

type frameReport struct {
	At       string            `json:"at"`
	Viewport *render.Transform `json:"viewport,omitempty"`
	Events   []frameEvent      `json:"events"`
}

type frameEvent struct {
	render.ActiveEvent
	Layer int    `json:"layer"`
	Style string `json:"style"`
	Start string `json:"start"`
	End   string `json:"end"`
	// position after the viewport transform
	ScreenX float64 `json:"screenX"`
	ScreenY float64 `json:"screenY"`
}

func runFrame(cmd *cobra.Command, args []string) error {
	atFlag, _ := cmd.Flags().GetString("at")
	viewportFlag, _ := cmd.Flags().GetString("viewport")

	at, err := parseAt(atFlag)
	if err != nil {
		return err
	}

	script, err := ass.ParseFile(args[0], logger.Named("ass"))
	if err != nil {
		return err
	}

	var transform *render.Transform
	if viewportFlag != "" {
		w, h, err := parseViewport(viewportFlag)
		if err != nil {
			return err
		}
		t := render.Viewport(script.PlayResX, script.PlayResY, w, h)
		transform = &t
	}

	report := buildFrameReport(script, at, transform)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func buildFrameReport(script *ass.Script, at time.Duration, transform *render.Transform) frameReport {
	active := render.Frame(script, at, render.Options{
		OnSkip: func(e ass.Event, err error) {
			logger.Warnw("Skipping event", "start", ass.FormatTimestamp(e.Start), "error", err)
		},
	})

	report := frameReport{
		At:       ass.FormatTimestamp(at),
		Viewport: transform,
		Events:   make([]frameEvent, 0, len(active)),
	}

	for _, a := range active {
		x, y := a.X, a.Y
		if transform != nil {
			x, y = transform.Apply(x, y)
		}
		report.Events = append(report.Events, frameEvent{
			ActiveEvent: a,
			Layer:       a.Event.Layer,
			Style:       a.Style.Name,
			Start:       ass.FormatTimestamp(a.Event.Start),
			End:         ass.FormatTimestamp(a.Event.End),
			ScreenX:     x,
			ScreenY:     y,
		})
	}

	return report
}

func parseAt(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("time must not be negative: %s", value)
		}
		return d, nil
	}
	d, err := ass.ParseTimestamp(value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: use 12.5s or 0:00:12.50", value)
	}
	return d, nil
}

func parseViewport(value string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(value), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid viewport %q: use WIDTHxHEIGHT", value)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid viewport %q: use WIDTHxHEIGHT", value)
	}
	return w, h, nil
}

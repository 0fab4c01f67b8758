package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kara/internal/ass"
	"github.com/mgpai22/kara/internal/config"
	"github.com/mgpai22/kara/internal/media"
	"github.com/mgpai22/kara/internal/pipeline"
)

const probeTimeout = 30 * time.Second

var convertCmd = &cobra.Command{
	Use:   "convert [song_dir]",
	Short: "Convert a song directory into a karaoke script and info file",
	Long: `Detect the format of a song directory (KaraFun .kfn, UltraStar .txt or
.lrc with audio) and write lyrics.ass, kara.json and the song's audio
tracks into the output directory.

With --all the argument is a library root: every sub-directory is converted
and failing songs are reported without stopping the run.

Examples:
  kara convert songs/abba-waterloo
  kara convert songs/abba-waterloo -o converted/waterloo --options night.yaml
  kara convert songs/ --all -o converted/ --padding 500ms`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().Bool("all", false, "Convert every song directory under the argument")
	convertCmd.Flags().String("options", "", "YAML file with script generation options")
	convertCmd.Flags().Int("workers", 0, "Number of archive entries decoded in parallel")
	convertCmd.Flags().String("title", "", "Script title (default: the song title)")
	convertCmd.Flags().String("font", "", "Lyric font name")
	convertCmd.Flags().Int("font-size", 0, "Lyric font size")
	convertCmd.Flags().String("highlight", "", "Highlight colour (&HBBGGRR&)")
	convertCmd.Flags().Duration("padding", 0, "Highlight pre-roll before every line")
	convertCmd.Flags().Int("countdown", 0, "Countdown numbers before the first line (0 disables)")
	convertCmd.Flags().Int("max-lines", 0, "Lines on screen at once")
	convertCmd.Flags().Bool("no-probe", false, "Do not ask ffprobe for track durations")
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	outputDir, _ := cmd.Flags().GetString("output")
	all, _ := cmd.Flags().GetBool("all")

	genOpts, err := generateOptions(cmd)
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers, _ = cmd.Flags().GetInt("workers")
	}

	opts := pipeline.Options{
		Generate: genOpts,
		Workers:  workers,
		Logger:   logger,
	}
	if noProbe, _ := cmd.Flags().GetBool("no-probe"); !noProbe {
		opts.Prober = media.FFprobe{
			Timeout: probeTimeout,
			Logger:  logger.Named("ffprobe"),
		}
	}

	if !all {
		res, err := pipeline.Convert(cmd.Context(), input, outputDir, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.LyricsPath)
		return nil
	}

	start := time.Now()
	results, err := pipeline.ProcessAll(cmd.Context(), input, outputDir, opts)
	for _, res := range results {
		fmt.Fprintln(cmd.OutOrStdout(), res.LyricsPath)
	}

	logger.Infow("Library converted",
		"converted", len(results),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("some songs failed to convert: %w", err)
	}
	return nil
}

// generateOptions layers the environment, the options file and the flags,
// later sources winning.
func generateOptions(cmd *cobra.Command) (ass.GenerateOptions, error) {
	opts := cfg.GenerateOptions()

	if path, _ := cmd.Flags().GetString("options"); path != "" {
		file, err := config.LoadOptionsFile(path)
		if err != nil {
			return ass.GenerateOptions{}, err
		}
		opts = file.Apply(opts)
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		opts.Title, _ = flags.GetString("title")
	}
	if flags.Changed("font") {
		opts.Font, _ = flags.GetString("font")
	}
	if flags.Changed("font-size") {
		opts.FontSize, _ = flags.GetInt("font-size")
	}
	if flags.Changed("highlight") {
		opts.HighlightColor, _ = flags.GetString("highlight")
	}
	if flags.Changed("padding") {
		opts.Padding, _ = flags.GetDuration("padding")
	}
	if flags.Changed("countdown") {
		opts.CountdownFrom, _ = flags.GetInt("countdown")
	}
	if flags.Changed("max-lines") {
		opts.MaxLinesOnScreen, _ = flags.GetInt("max-lines")
	}

	if _, err := ass.ParseColor(opts.HighlightColor); err != nil {
		return ass.GenerateOptions{}, fmt.Errorf("invalid highlight colour %q: %w", opts.HighlightColor, err)
	}
	return opts, nil
}

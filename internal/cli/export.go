package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kara/internal/ass"
	"github.com/mgpai22/kara/internal/subtitle"
)

var exportCmd = &cobra.Command{
	Use:   "export [lyrics.ass]",
	Short: "Export a karaoke script as plain SRT or WebVTT subtitles",
	Long: `Flatten a karaoke script into plain subtitles: every line becomes one
cue with its override tags removed. Countdown numbers are dropped unless
--countdown is given.

Examples:
  kara export lyrics.ass
  kara export lyrics.ass -f vtt -o lyrics.vtt
  kara export lyrics.ass -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", "srt", "Output subtitle format (srt, vtt)")
	exportCmd.Flags().Bool("countdown", false, "Keep the countdown numbers")
}

func runExport(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]

	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	countdown, _ := cmd.Flags().GetBool("countdown")

	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	if outputPath == "" {
		baseName := strings.TrimSuffix(scriptPath, filepath.Ext(scriptPath))
		outputPath = baseName + subtitle.GetExtensionForFormat(format)
	}

	script, err := ass.ParseFile(scriptPath, logger.Named("ass"))
	if err != nil {
		return err
	}

	sub := subtitle.FromScript(script, subtitle.ExportOptions{IncludeCountdown: countdown})

	if outputPath == "-" {
		w, err := subtitle.NewWriter(format)
		if err != nil {
			return err
		}
		return w.Encode(sub, cmd.OutOrStdout())
	}

	if err := subtitle.WriteFile(sub, format, outputPath); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	logger.Infow("Subtitles exported",
		"input", scriptPath,
		"output", outputPath,
		"format", string(format),
		"cues", len(sub.Entries),
	)
	return nil
}

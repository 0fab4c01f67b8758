package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kara/internal/kfn"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file.kfn]",
	Short: "Decode every file stored in a KaraFun archive",
	Long: `Decode the entries of a .kfn archive (audio tracks, Song.ini, images)
and write them into a directory. Encrypted entries are decrypted with the
key stored in the archive header.

Examples:
  kara extract song.kfn
  kara extract song.kfn -o extracted/ --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		Int("workers", 0, "Number of entries decoded in parallel (default from KARA_WORKERS)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	archivePath := args[0]

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = strings.TrimSuffix(archivePath, filepath.Ext(archivePath))
	}

	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers, _ = cmd.Flags().GetInt("workers")
	}

	archive, err := kfn.Open(archivePath, logger.Named("kfn"))
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		_ = archive.Close()
	}()

	logger.Infow("Extracting archive",
		"archive", archivePath,
		"output", outputDir,
		"entries", len(archive.Entries),
		"workers", workers,
	)

	written, err := archive.ExtractAll(cmd.Context(), outputDir, workers)
	if err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}

	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}

	logger.Infow("Extraction complete", "files", len(written))
	return nil
}

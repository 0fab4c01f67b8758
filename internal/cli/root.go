package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kara/internal/config"
	"github.com/mgpai22/kara/internal/logging"
)

var (
	verbose  bool
	logLevel string
	envFile  string
	cfg      config.Config
	logger   *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kara",
	Short: "Karaoke format converter and lyric timing toolkit",
	Long: `Kara converts legacy karaoke songs (KaraFun .kfn archives, UltraStar
note files and timed .lrc lyrics) into a karaoke ASS script with an info
file, and inspects the result frame by frame.

Settings are read from KARA_* environment variables and an optional .env
file; command flags override both.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}

		loaded, err := config.Load(files...)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		logger = logging.NewLevel(level, verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().
		StringVar(&envFile, "env-file", "", "Load settings from this file instead of .env")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output path")
}

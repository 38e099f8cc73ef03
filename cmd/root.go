package cmd

import (
	"fmt"
	"os"

	"supersonic/config"
	"supersonic/logger"

	"github.com/spf13/cobra"
)

// cfg is loaded once before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "supersonic",
	Short: "Supersonic is a read-only Subsonic compatible music server.",
	Long: `Supersonic serves a music catalog built by the scanner to any
Subsonic client: browsing, cover art, playlists and ranged streaming.
Without a subcommand it starts the server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
			Console:    cfg.LogConsole,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	Run: runServe,
}

func init() {
	flags.bind(rootCmd)
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

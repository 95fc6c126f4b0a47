package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/scitags/nlcodec/cmd/subcmd"
	"github.com/scitags/nlcodec/types"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "nlcodec",
		Short: "A netlink message codec.",
		Long: "Encode and decode netlink messages for the ping-pong, beverage and\n" +
			"conntrack families, either from the command line or over HTTP.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Get the built version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("built commit: %s\n", builtCommit)
		},
	}

	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Encode and decode sample messages of a given family.",
	}

	confPath    string
	logLevel    string
	logTimeFlag bool
	builtCommit = "dev"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&confPath, "conf", "", "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "one of trace, debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&logTimeFlag, "log-time", false, "include timestamps in the log")

	// Disable completion please!
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add the different sub-commands
	demoCmd.AddCommand(subcmd.PingPongDemo)
	demoCmd.AddCommand(subcmd.BeverageDemo)
	demoCmd.AddCommand(subcmd.ConntrackDemo)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(subcmd.ManPages)
}

func setupLogging() error {
	level, err := types.ParseLogLevel(logLevel)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   level <= types.LevelDebug,
		Level:       level,
		ReplaceAttr: logReplacements,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConf falls back to the defaults when no configuration is given.
func loadConf() (*Config, error) {
	if confPath == "" {
		conf := DefaultConfig
		return &conf, nil
	}
	return ReadConf(confPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

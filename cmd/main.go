//go:build linux

package main

//go:generate go tool go-md2man -in ../docs/nsnet.1.md -out ../docs/nsnet.1

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "nsnet",
		Short: "A namespace-aware interface enumerator and fd-passing helper.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, ok := logLevelMap[logLevelFlag]
			if !ok {
				level = slog.LevelInfo
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				AddSource:   true,
				Level:       level,
				ReplaceAttr: logReplacements,
			}))
			slog.SetDefault(logger)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Get the built version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("built commit: %s\n", builtCommit)
		},
	}

	logLevelFlag string
	logTimeFlag  bool
	confFlag     string

	builtCommit = "dev"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "One of debug, info, warn or error.")
	rootCmd.PersistentFlags().BoolVar(&logTimeFlag, "log-time", false, "Include timestamps in log lines.")
	rootCmd.PersistentFlags().StringVar(&confFlag, "conf", "/etc/nsnet/conf.yaml", "Path to the configuration file.")

	// Disable completion please!
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add the different sub-commands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ifacesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(sendFdCmd)
	rootCmd.AddCommand(recvFdCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cesargomez89/slskdsync/internal/config"
	"github.com/cesargomez89/slskdsync/internal/logger"
)

var (
	flagLimit   int
	flagProfile string

	cmdRoot = &cobra.Command{
		Use:   "slskdsync",
		Short: "Download Spotify liked tracks missing from the local library through slskd",
	}
)

func init() {
	cmdRoot.PersistentFlags().IntVar(&flagLimit, "limit", 0, "maximum wanted tracks to process, 0 keeps TRACK_LIMIT")
	cmdRoot.PersistentFlags().StringVar(&flagProfile, "profile", "", "quality profile (LOSSLESS, HIGH, STANDARD, ANY)")

	cmdRoot.AddCommand(cmdSync(), cmdDuplicates(), cmdServe(), cmdAuth())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmdRoot.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment, applies command line overrides and
// validates the credentials the calling command needs.
func loadConfig(cmd *cobra.Command, needs config.Need) (*config.Config, *logger.Logger, error) {
	cfg := config.Load()
	if cmd.Flags().Changed("limit") {
		cfg.TrackLimit = flagLimit
	}
	if flagProfile != "" {
		cfg.SetProfile(flagProfile)
	}

	log := logger.New(logger.Config{
		Output: os.Stderr,
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	for _, w := range cfg.Warnings {
		log.Warn("Configuration warning", "warning", w)
	}

	if err := cfg.Validate(needs); err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cesargomez89/slskdsync/internal/config"
	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/downloader"
	"github.com/cesargomez89/slskdsync/internal/metrics"
	"github.com/cesargomez89/slskdsync/internal/store"
)

func cmdSync() *cobra.Command {
	var refresh, retryFailed bool
	cmd := &cobra.Command{
		Use:          "sync",
		Short:        "Download wanted tracks that are not in the library",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, config.NeedSlskd|config.NeedSpotify)
			if err != nil {
				return err
			}

			db, err := store.NewSQLiteDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if n, err := db.PurgeExpiredCache(); err != nil {
				log.Warn("Failed to purge cache", "error", err)
			} else if n > 0 {
				log.Debug("Purged expired cache entries", "count", n)
			}

			metrics.Register()
			batch, err := newBatch(cmd.Context(), cfg, db, log, refresh)
			if err != nil {
				return err
			}
			batch.RetryFailed = retryFailed

			summary, err := batch.Run(cmd.Context())
			printSummary(os.Stdout, summary)
			return err
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached wanted list")
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "only retry tracks whose last attempt failed")
	return cmd
}

func printSummary(w io.Writer, s downloader.Summary) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Fprintf(w, "\nRun %s\n", s.RunID)
	fmt.Fprintf(w, "  wanted:     %d\n", s.Total)
	yellow.Fprintf(w, "  skipped:    %d\n", s.Skipped)
	green.Fprintf(w, "  downloaded: %d\n", s.Succeeded)
	red.Fprintf(w, "  failed:     %d\n", s.Failed)

	for _, a := range s.Attempts {
		if a.Outcome != domain.OutcomeFailed {
			continue
		}
		red.Fprintf(w, "  x %s - %s: %s\n", a.Artist, a.Title, a.Reason)
	}
}

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cesargomez89/slskdsync/internal/config"
	"github.com/cesargomez89/slskdsync/internal/store"
)

func cmdAuth() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:          "auth",
		Short:        "Authorize access to the Spotify liked tracks library",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, config.NeedSpotify)
			if err != nil {
				return err
			}

			db, err := store.NewSQLiteDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			settings := db.Settings()
			if reset {
				existed, err := settings.Delete(store.SettingSpotifyToken)
				if err != nil {
					return fmt.Errorf("remove stored token: %w", err)
				}
				if !existed {
					log.Info("No stored token to discard")
				}
			} else if saved, ok, err := settings.UpdatedAt(store.SettingSpotifyToken); err == nil && ok {
				log.Info("Replacing stored token", "saved", humanize.Time(saved))
			}

			out := cmd.OutOrStdout()
			err = newAuth(cfg, db, log).Login(cmd.Context(), func(url string) {
				fmt.Fprintln(out, "Open this URL in a browser to authorize slskdsync:")
				color.New(color.FgCyan).Fprintln(out, url)
			})
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintln(out, "Spotify token saved")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "discard the stored token before authorizing")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httpapp "github.com/cesargomez89/slskdsync/internal/http"
	"github.com/cesargomez89/slskdsync/internal/metrics"
	"github.com/cesargomez89/slskdsync/internal/store"
)

func cmdServe() *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Serve run history, library duplicates and metrics over HTTP",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, 0)
			if err != nil {
				return err
			}

			db, err := store.NewSQLiteDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			metrics.Register()
			dupes := func(ctx context.Context) (int, map[string][]string, error) {
				idx, err := buildIndex(ctx, cfg, log, false)
				if err != nil {
					return 0, nil, err
				}
				return idx.Len(), idx.NearDuplicates(), nil
			}
			h := httpapp.NewHandler(db, dupes, log)

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           httpapp.NewRouter(h),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("Server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			log.Info("Shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

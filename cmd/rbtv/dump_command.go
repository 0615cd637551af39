package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"rbtv/internal/catalog/local"
)

func newDumpCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Mirror the mediathek into the local snapshot",
		Long: `Fetch the full show, episode, Bohnen and blog catalog from the Rocket
Beans API and replace the local snapshot with it. The snapshot is what the
local backend queries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			logger = logger.With(slog.String("component", "dump"))

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.Paths.DBPath + ".lock")
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire snapshot lock: %w", err)
			}
			if !ok {
				return errors.New("another dump is already writing the snapshot")
			}
			defer lock.Unlock()

			logger.Info("building mediathek snapshot", slog.String("path", cfg.Paths.DBPath))
			if err := local.Create(cmd.Context(), cfg.Paths.DBPath, client, logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote mediathek snapshot to %s\n", cfg.Paths.DBPath)
			return nil
		},
	}
}

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"rbtv/internal/reorganize"
)

func newReorganizeCommand(ctx *commandContext) *cobra.Command {
	reorganizeCmd := &cobra.Command{
		Use:   "reorganize",
		Short: "Reconcile the download records with the files on disk",
	}

	run := func(cmd *cobra.Command, fn func(*reorganize.Tool) error) error {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		logger, err := ctx.ensureLogger()
		if err != nil {
			return err
		}
		logger = logger.With(slog.String("component", "reorganize"))

		backend, err := ctx.openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()

		store, err := ctx.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		return fn(reorganize.New(backend, store, cfg.Paths.BasePath, logger, cmd.OutOrStdout()))
	}

	reorganizeCmd.AddCommand(&cobra.Command{
		Use:   "list-incomplete-episodes",
		Short: "List episodes whose part and completion records disagree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(tool *reorganize.Tool) error {
				return tool.ListIncompleteEpisodes(cmd.Context())
			})
		},
	})

	reorganizeCmd.AddCommand(&cobra.Command{
		Use:   "list-files",
		Short: "Dump every recorded part",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(tool *reorganize.Tool) error {
				return tool.ListFiles(cmd.Context())
			})
		},
	})

	reorganizeCmd.AddCommand(&cobra.Command{
		Use:   "forget-missing-files",
		Short: "Drop records of parts whose file no longer exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(tool *reorganize.Tool) error {
				return tool.ForgetMissingFiles(cmd.Context())
			})
		},
	})

	reorganizeCmd.AddCommand(&cobra.Command{
		Use:   "list-untracked-files",
		Short: "List files in the download tree no record points at",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(tool *reorganize.Tool) error {
				return tool.ListUntrackedFiles(cmd.Context())
			})
		},
	})

	var tokenRegex string
	trackCmd := &cobra.Command{
		Use:   "track-untracked-files",
		Short: "Adopt untracked files by the token in their filename",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(tool *reorganize.Tool) error {
				pattern := tokenRegex
				if pattern == "" {
					cfg, err := ctx.ensureConfig()
					if err != nil {
						return err
					}
					pattern = cfg.Reorganize.TokenRegex
				}
				return tool.TrackUntrackedFiles(cmd.Context(), pattern)
			})
		},
	}
	trackCmd.Flags().StringVar(&tokenRegex, "token-regex", "", "Override the token extraction pattern")
	reorganizeCmd.AddCommand(trackCmd)

	return reorganizeCmd
}

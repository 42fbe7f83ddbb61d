package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/cache"
	"github.com/kbukum/samuelizer/errors"
)

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached transcripts",
	}
	cmd.AddCommand(c.cacheClearCmd(), c.cacheStatsCmd(), c.cacheInvalidateCmd())
	return cmd
}

// withCache is withApp for commands that need the cache store.
func (c *cli) withCache(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, store cache.Store) error) error {
	return c.withApp(cmd, nil, func(ctx context.Context, a *app.App) error {
		if a.Cache == nil {
			return errors.InvalidInput("cache.enabled", "the cache is disabled")
		}
		return fn(ctx, a, a.Cache)
	})
}

func (c *cli) cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached transcript",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCache(cmd, func(ctx context.Context, _ *app.App, store cache.Store) error {
				before, err := store.Stats(ctx)
				if err != nil {
					return err
				}
				if err := store.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "removed %d cached transcript(s)\n", before.Entries)
				return nil
			})
		},
	}
}

func (c *cli) cacheStatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache size",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCache(cmd, func(ctx context.Context, a *app.App, store cache.Store) error {
				st, err := store.Stats(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(c, st)
				}
				fmt.Fprintf(c.stdout, "backend: %s\nentries: %d\nsize:    %s\n", st.Backend, st.Entries, humanBytes(st.Bytes))
				if st.Backend == cache.BackendFile {
					fmt.Fprintf(c.stdout, "dir:     %s\n", a.Cfg.Cache.Dir)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (c *cli) cacheInvalidateCmd() *cobra.Command {
	var flags transcribeFlags
	cmd := &cobra.Command{
		Use:   "invalidate <file>",
		Short: "Drop the cached transcript for a file",
		Long: "Invalidate recomputes the file's fingerprint with the given transcription options,\n" +
			"so pass the same --provider, --model and --mode that produced the entry.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(cmd, func(ctx context.Context, a *app.App, _ cache.Store) error {
				req, err := flags.request(a.Cfg, args[0])
				if err != nil {
					return err
				}
				fp, err := a.Transcriber.Invalidate(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "invalidated %s\n", fp)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

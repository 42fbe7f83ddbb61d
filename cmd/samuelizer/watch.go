package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/export"
	"github.com/kbukum/samuelizer/watch"
)

func (c *cli) watchCmd() *cobra.Command {
	var (
		tflags   transcribeFlags
		aflags   analyzeFlags
		analyze  bool
		existing bool
	)
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Transcribe recordings dropped into a folder",
		Long: "Watch transcribes every new audio or video file in dir (watch.dir by default)\n" +
			"and writes the transcript to the output directory. With --analyze it also\n" +
			"writes meeting minutes. Stop with Ctrl-C.",
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adjust := func(cfg *app.Config) error {
				if len(args) == 1 {
					cfg.Watch.Dir = args[0]
				}
				if existing {
					cfg.Watch.ProcessExisting = true
				}
				if cfg.Watch.Dir == "" {
					return errors.InvalidInput("watch.dir", "a directory is required")
				}
				return nil
			}
			return c.withApp(cmd, adjust, func(ctx context.Context, a *app.App) error {
				w, err := watch.New(a.Cfg.Watch, c.watchHandler(a, &tflags, &aflags, analyze), a.Logger)
				if err != nil {
					return err
				}
				return w.Run(ctx)
			})
		},
	}
	tflags.register(cmd)
	aflags.register(cmd, "analysis-")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "also analyze and export meeting minutes")
	cmd.Flags().BoolVar(&existing, "process-existing", false, "handle files already in the folder")
	return cmd
}

func (c *cli) watchHandler(a *app.App, tflags *transcribeFlags, aflags *analyzeFlags, analyze bool) watch.Handler {
	return func(ctx context.Context, path string) error {
		if analyze {
			_, err := processFile(ctx, a, path, tflags, aflags, "")
			return err
		}
		req, err := tflags.request(a.Cfg, path)
		if err != nil {
			return err
		}
		res, err := a.Transcriber.Transcribe(ctx, req)
		if err != nil {
			return err
		}
		_, err = a.Exporter.Export(ctx, export.Document{Source: path, Transcript: res.Text}, export.BaseName(path), export.FormatText)
		return err
	}
}

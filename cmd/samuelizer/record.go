package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/capture"
	"github.com/kbukum/samuelizer/logger"
)

func (c *cli) recordCmd() *cobra.Command {
	var (
		flags        transcribeFlags
		duration     time.Duration
		noTranscribe bool
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record system audio to a WAV file and transcribe it",
		Long: "Record captures the default input device for --duration, or until Ctrl-C,\n" +
			"and saves recording_<timestamp>.wav in capture.output_dir. Audio capture\n" +
			"needs a build with the portaudio tag.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, nil, func(ctx context.Context, a *app.App) error {
				rec := capture.NewRecorder(a.Cfg.Capture, a.Logger, c.captureOpts...)
				fmt.Fprintf(c.stderr, "recording for %s, press Ctrl-C to stop early\n", duration)
				path, err := rec.Record(ctx, duration)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.stdout, path)
				if noTranscribe {
					return nil
				}
				// The recording context may be cancelled by Ctrl-C; the
				// transcript is still wanted.
				req, err := flags.request(a.Cfg, path)
				if err != nil {
					return err
				}
				res, err := a.Transcriber.Transcribe(context.WithoutCancel(ctx), req)
				if err != nil {
					return err
				}
				a.Logger.Info("recording transcribed", logger.Fields(logger.FieldPath, path, "cached", res.Cached))
				fmt.Fprintln(c.stdout, res.Text)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVarP(&duration, "duration", "d", time.Minute, "how long to record")
	cmd.Flags().BoolVar(&noTranscribe, "no-transcribe", false, "only save the recording")
	return cmd
}

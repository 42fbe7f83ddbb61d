package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/export"
	"github.com/kbukum/samuelizer/logger"
)

func (c *cli) processCmd() *cobra.Command {
	var (
		tflags  transcribeFlags
		aflags  analyzeFlags
		formats []string
		outDir  string
		title   string
	)
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Transcribe, analyze and export meeting minutes",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adjust := func(cfg *app.Config) error {
				if outDir != "" {
					cfg.Output.Dir = outDir
				}
				if len(formats) > 0 {
					cfg.Output.Formats = formats
				}
				_, err := export.ParseFormats(cfg.Output.Formats)
				return err
			}
			return c.withApp(cmd, adjust, func(ctx context.Context, a *app.App) error {
				paths, err := processFile(ctx, a, args[0], &tflags, &aflags, title)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(c.stdout, p)
				}
				return nil
			})
		},
	}
	tflags.register(cmd)
	aflags.register(cmd, "analysis-")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "export formats: docx, json, txt")
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", "", "export directory")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	return cmd
}

// processFile runs the meeting-minutes flow for one recording and returns
// the exported file paths.
func processFile(ctx context.Context, a *app.App, path string, tflags *transcribeFlags, aflags *analyzeFlags, title string) ([]string, error) {
	log := a.Logger.WithFields(logger.Fields(logger.FieldPath, path))

	treq, err := tflags.request(a.Cfg, path)
	if err != nil {
		return nil, err
	}
	tr, err := a.Transcriber.Transcribe(ctx, treq)
	if err != nil {
		return nil, err
	}
	log.Info("transcribed", logger.Fields("cached", tr.Cached, logger.FieldFingerprint, tr.Fingerprint.Short()))

	areq, err := aflags.request(a.Cfg, tr.Text)
	if err != nil {
		return nil, err
	}
	res, err := a.Analyzer.Analyze(ctx, areq)
	if err != nil {
		return nil, err
	}

	formats, err := export.ParseFormats(a.Cfg.Output.Formats)
	if err != nil {
		return nil, err
	}
	return a.Exporter.Export(ctx, export.Document{
		Title:      title,
		Source:     path,
		Transcript: tr.Text,
		Analysis:   res,
	}, export.BaseName(path), formats...)
}

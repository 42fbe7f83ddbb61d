package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/export"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/pipeline"
)

// textInput is one document to summarize.
type textInput struct {
	source string
	text   string
}

func (c *cli) summarizeCmd() *cobra.Command {
	var (
		flags   analyzeFlags
		formats []string
	)
	cmd := &cobra.Command{
		Use:   "summarize [file...]",
		Short: "Summarize text files, or stdin when no file is given",
		Long: "Summarize analyzes each input with the summary template unless --template says otherwise.\n" +
			"Inputs are processed batch_size at a time with rate_limit_delay seconds between batches.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			inputs := make([]textInput, 0, len(args))
			for _, src := range args {
				text, err := c.readText(src)
				if err != nil {
					return err
				}
				inputs = append(inputs, textInput{source: src, text: text})
			}
			if flags.template == "" {
				flags.template = "summary"
			}
			return c.withApp(cmd, nil, func(ctx context.Context, a *app.App) error {
				fs, err := export.ParseFormats(formats)
				if err != nil {
					return err
				}
				return c.summarize(ctx, a, inputs, &flags, fs)
			})
		},
	}
	flags.register(cmd, "")
	cmd.Flags().StringSliceVarP(&formats, "export", "e", nil, "also export each summary: docx, json, txt")
	return cmd
}

// summarize paces batches of inputs so a long list stays under provider
// rate limits. Output order follows the arguments.
func (c *cli) summarize(ctx context.Context, a *app.App, inputs []textInput, flags *analyzeFlags, formats []export.Format) error {
	batches := pipeline.Pace(
		pipeline.Batch(pipeline.FromSlice(inputs), a.Cfg.BatchSize, 0),
		a.Cfg.RateLimitPause(),
	)
	multi := len(inputs) > 1
	n := 0
	return pipeline.ForEach(ctx, batches, func(ctx context.Context, batch []textInput) error {
		a.Logger.Debug("summarizing batch", logger.Fields("size", len(batch)))
		for _, in := range batch {
			req, err := flags.request(a.Cfg, in.text)
			if err != nil {
				return err
			}
			res, err := a.Analyzer.Analyze(ctx, req)
			if err != nil {
				return err
			}
			if multi {
				if n > 0 {
					fmt.Fprintln(c.stdout)
				}
				fmt.Fprintf(c.stdout, "==> %s <==\n", in.source)
			}
			n++
			printAnalysis(c.stdout, res)

			if len(formats) > 0 {
				base, title := "stdin", "Summary"
				if in.source != "-" {
					base = export.BaseName(in.source)
					title = "Summary: " + filepath.Base(in.source)
				}
				doc := export.Document{Title: title, Source: in.source, Analysis: res}
				paths, err := a.Exporter.Export(ctx, doc, base, formats...)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintf(c.stderr, "wrote %s\n", p)
				}
			}
		}
		return nil
	})
}

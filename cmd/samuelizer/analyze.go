package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/orchestrator"
)

type analyzeFlags struct {
	template string
	provider string
	model    string
	mode     string
}

func (f *analyzeFlags) register(cmd *cobra.Command, prefix string) {
	fs := cmd.Flags()
	fs.StringVarP(&f.template, "template", "t", "", "analysis template, or auto (default from config)")
	fs.StringVar(&f.provider, prefix+"provider", "", "analysis provider")
	fs.StringVar(&f.model, prefix+"model", "", "analysis model")
	fs.StringVar(&f.mode, prefix+"mode", "", "remote or local")
}

func (f *analyzeFlags) request(cfg *app.Config, text string) (orchestrator.AnalysisRequest, error) {
	mode, err := backend.ParseMode(f.mode)
	if err != nil {
		return orchestrator.AnalysisRequest{}, errors.InvalidInput("mode", err.Error())
	}
	tpl := f.template
	if tpl == "" {
		tpl = cfg.Analysis.Template
	}
	return orchestrator.AnalysisRequest{
		Text:     text,
		Template: tpl,
		Provider: f.provider,
		Model:    f.model,
		Mode:     mode,
	}, nil
}

func (c *cli) analyzeCmd() *cobra.Command {
	var (
		flags  analyzeFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze a transcript or any text with a template",
		Long:  "Analyze reads text from the file argument, or from stdin when the argument is - or missing.",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			text, err := c.readText(src)
			if err != nil {
				return err
			}
			return c.withApp(cmd, nil, func(ctx context.Context, a *app.App) error {
				req, err := flags.request(a.Cfg, text)
				if err != nil {
					return err
				}
				res, err := a.Analyzer.Analyze(ctx, req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(c, res)
				}
				printAnalysis(c.stdout, res)
				return nil
			})
		},
	}
	flags.register(cmd, "")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// readText reads a whole text input; "-" is stdin.
func (c *cli) readText(src string) (string, error) {
	var (
		data []byte
		err  error
	)
	if src == "-" {
		data, err = io.ReadAll(c.stdin)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return "", errors.InputUnreadable(src, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.InvalidInput("text", "input is empty").WithStage(errors.StageValidation)
	}
	return text, nil
}

func printAnalysis(w io.Writer, res *orchestrator.AnalysisResult) {
	for i, key := range res.Order {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := res.Titles[key]
		if title == "" {
			title = key
		}
		fmt.Fprintf(w, "## %s\n\n%s\n", title, res.Sections[key])
	}
	if len(res.Incomplete) > 0 {
		fmt.Fprintf(w, "\n(%d of %d parts could not be analyzed)\n", len(res.Incomplete), res.Chunks)
	}
}

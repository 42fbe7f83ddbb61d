package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/httpclient"
	"github.com/kbukum/samuelizer/media"
	"github.com/kbukum/samuelizer/orchestrator"
)

// transcribeFlags select how a recording is transcribed.
type transcribeFlags struct {
	provider string
	model    string
	mode     string
	language string
	diarize  bool
	noCache  bool
}

func (f *transcribeFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.provider, "provider", "p", "", "transcription provider (openai, gemini, local)")
	fs.StringVarP(&f.model, "model", "m", "", "transcription model")
	fs.StringVar(&f.mode, "mode", "", "remote or local")
	fs.StringVarP(&f.language, "language", "l", "", "language hint, e.g. en")
	fs.BoolVar(&f.diarize, "diarize", false, "label speakers")
	fs.BoolVar(&f.noCache, "no-cache", false, "ignore cached transcripts")
}

// request builds the request for path; config fills what the flags leave empty.
func (f *transcribeFlags) request(cfg *app.Config, path string) (orchestrator.TranscriptionRequest, error) {
	mode, err := backend.ParseMode(f.mode)
	if err != nil {
		return orchestrator.TranscriptionRequest{}, errors.InvalidInput("mode", err.Error())
	}
	req := orchestrator.TranscriptionRequest{
		AudioPath:   path,
		Provider:    f.provider,
		Model:       f.model,
		Mode:        mode,
		Language:    f.language,
		Diarization: f.diarize || cfg.Transcription.Diarization,
		UseCache:    !f.noCache,
	}
	if req.Language == "" {
		req.Language = cfg.Transcription.Language
	}
	return req, nil
}

func (c *cli) transcribeCmd() *cobra.Command {
	var (
		flags  transcribeFlags
		output string
		remote string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "transcribe <file> | --drive-url URL",
		Short: "Transcribe an audio or video file",
		Args: func(cmd *cobra.Command, args []string) error {
			if remote != "" {
				return exactArgs(0)(cmd, args)
			}
			return exactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, nil, func(ctx context.Context, a *app.App) error {
				path := remote
				if remote == "" {
					path = args[0]
				} else {
					fetched, cleanup, err := fetchRecording(ctx, remote)
					if err != nil {
						return err
					}
					defer cleanup()
					path = fetched
				}
				req, err := flags.request(a.Cfg, path)
				if err != nil {
					return err
				}
				res, err := a.Transcriber.Transcribe(ctx, req)
				if err != nil {
					return err
				}
				if output != "" {
					if err := os.WriteFile(output, []byte(res.Text+"\n"), 0o644); err != nil {
						return errors.Internal(err).WithStage(errors.StageExport).WithDetail("file", output)
					}
				}
				if asJSON {
					return writeJSON(c, res)
				}
				if output == "" {
					fmt.Fprintln(c.stdout, res.Text)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the transcript to this file")
	cmd.Flags().StringVar(&remote, "drive-url", "", "download the recording from a Google Drive share link or any http(s) URL")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func writeJSON(c *cli, v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fetchRecording downloads a remote recording into a temporary directory
// that cleanup removes.
func fetchRecording(ctx context.Context, rawURL string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "samuelizer-download-")
	if err != nil {
		return "", nil, errors.Internal(err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	client, err := httpclient.New(httpclient.Config{})
	if err != nil {
		cleanup()
		return "", nil, errors.Internal(err)
	}
	path, err := media.Fetch(ctx, client, rawURL, dir)
	if err != nil {
		cleanup()
		return "", nil, errors.Wrap(err).WithStage(errors.StageValidation)
	}
	return path, cleanup, nil
}

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/export"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/slack"
	"github.com/kbukum/samuelizer/storage/local"
)

func (c *cli) slackCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "slack",
		Short: "Download and summarize Slack conversations",
	}
	cmd.PersistentFlags().StringVar(&token, "token", "", "Slack token (default: slack.token or SLACK_TOKEN)")
	withToken := func(cfg *app.Config) error {
		if token != "" {
			cfg.Slack.Token = token
		}
		return nil
	}
	cmd.AddCommand(c.slackListCmd(withToken), c.slackDownloadCmd(withToken))
	return cmd
}

func newSlackClient(a *app.App) (*slack.Client, error) {
	store, err := local.NewStorage(a.Cfg.Slack.UserCacheDir)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return slack.New(a.Cfg.Slack, slack.NewUserCache(store), a.Logger)
}

func (c *cli) slackListCmd(adjust func(*app.Config) error) *cobra.Command {
	var (
		opts   slack.ListOptions
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the conversations the token can read",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, adjust, func(ctx context.Context, a *app.App) error {
				client, err := newSlackClient(a)
				if err != nil {
					return err
				}
				chans, err := client.Channels(ctx, opts)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(c, chans)
				}
				if len(chans) == 0 {
					fmt.Fprintln(c.stderr, "no conversations are visible to this token")
					return nil
				}
				tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tNAME\tMEMBERS\tTOPIC")
				for _, ch := range chans {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", ch.ID, ch.Type(), ch.DisplayName(), ch.NumMembers, ch.Topic.Value)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&opts.IncludePrivate, "private", true, "include private channels and direct messages")
	cmd.Flags().BoolVar(&opts.IncludeArchived, "archived", false, "include archived channels")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// dateFlag parses YYYY-MM-DD as a UTC day.
func dateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errors.InvalidInput(name, "expected YYYY-MM-DD, got "+value)
	}
	return t, nil
}

func (c *cli) slackDownloadCmd(adjust func(*app.Config) error) *cobra.Command {
	var (
		flags      analyzeFlags
		start, end string
		outputDir  string
		noSummary  bool
		formats    []string
	)
	cmd := &cobra.Command{
		Use:   "download CHANNEL_ID...",
		Short: "Download channel history to JSON and summarize it",
		Long: "Download saves each channel as slack_messages_<id>_<stamp>.json under --output-dir,\n" +
			"then summarizes the conversation unless --no-summary is given. Channels are\n" +
			"summarized batch_size at a time with rate_limit_delay seconds between batches.",
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				opts slack.HistoryOptions
				err  error
			)
			if opts.Start, err = dateFlag("start-date", start); err != nil {
				return err
			}
			if opts.End, err = dateFlag("end-date", end); err != nil {
				return err
			}
			if !opts.Start.IsZero() && !opts.End.IsZero() && opts.End.Before(opts.Start) {
				return errors.InvalidInput("end-date", "end date is before start date")
			}
			if flags.template == "" {
				flags.template = "summary"
			}
			return c.withApp(cmd, func(cfg *app.Config) error {
				if outputDir != "" {
					cfg.Slack.OutputDir = outputDir
				}
				return adjust(cfg)
			}, func(ctx context.Context, a *app.App) error {
				fs, err := export.ParseFormats(formats)
				if err != nil {
					return err
				}
				inputs, err := c.downloadChannels(ctx, a, args, opts)
				if err != nil || noSummary || len(inputs) == 0 {
					return err
				}
				return c.summarize(ctx, a, inputs, &flags, fs)
			})
		},
	}
	flags.register(cmd, "")
	cmd.Flags().StringVar(&start, "start-date", "", "first day to download, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end-date", "", "last day to download, YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for the JSON exports (default: slack.output_dir)")
	cmd.Flags().BoolVar(&noSummary, "no-summary", false, "only download")
	cmd.Flags().StringSliceVarP(&formats, "export", "e", []string{"docx"}, "export each summary: docx, json, txt")
	return cmd
}

// downloadChannels saves each channel's history and returns the non-empty
// conversations as summarize inputs.
func (c *cli) downloadChannels(ctx context.Context, a *app.App, channels []string, opts slack.HistoryOptions) ([]textInput, error) {
	client, err := newSlackClient(a)
	if err != nil {
		return nil, err
	}
	store, err := local.NewStorage(a.Cfg.Slack.OutputDir)
	if err != nil {
		return nil, errors.Internal(err)
	}
	inputs := make([]textInput, 0, len(channels))
	for _, id := range channels {
		msgs, err := client.History(ctx, id, opts)
		if err != nil {
			return nil, err
		}
		exp := slack.NewExport(id, opts, msgs, time.Now())
		name, err := exp.Save(ctx, store)
		if err != nil {
			return nil, errors.Internal(err)
		}
		path := filepath.Join(store.BasePath(), name)
		fmt.Fprintf(c.stderr, "wrote %s (%d messages)\n", path, len(msgs))

		text := exp.Transcript()
		if text == "" {
			a.Logger.Info("no messages to summarize", logger.Fields("channel", id))
			continue
		}
		inputs = append(inputs, textInput{source: path, text: text})
	}
	return inputs, nil
}

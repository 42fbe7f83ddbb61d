package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/capture"
	"github.com/kbukum/samuelizer/errors"
)

// cli carries the process streams and the global flags to every command.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	verbose    bool

	// appOpts are passed to app.New; tests use them to inject fakes.
	appOpts     []app.Option
	captureOpts []capture.Option
}

// run executes the command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, opts ...app.Option) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, appOpts: opts}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", errors.UserMessage(err))
		return errors.ExitCode(err)
	}
	return errors.ExitOK
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           app.ServiceName,
		Short:         "Transcribe recordings and summarize conversations",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "config file (default: ./config.yml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.InvalidInput("flags", err.Error())
	})

	root.AddCommand(
		c.transcribeCmd(),
		c.analyzeCmd(),
		c.processCmd(),
		c.summarizeCmd(),
		c.slackCmd(),
		c.cacheCmd(),
		c.providersCmd(),
		c.templatesCmd(),
		c.watchCmd(),
		c.recordCmd(),
		c.serveCmd(),
		c.versionCmd(),
	)
	return root
}

// withApp loads the configuration, lets the command adjust it, builds the
// App and runs fn as a task that SIGINT cancels.
func (c *cli) withApp(cmd *cobra.Command, adjust func(*app.Config) error, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := app.LoadConfig(c.configFile)
	if err != nil {
		return err
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	if adjust != nil {
		if err := adjust(cfg); err != nil {
			return err
		}
	}
	a, err := app.New(cmd.Context(), cfg, c.appOpts...)
	if err != nil {
		return err
	}
	return a.RunTask(cmd.Context(), func(ctx context.Context) error {
		return fn(ctx, a)
	})
}

// exactArgs is cobra.ExactArgs with an InvalidInput error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.InvalidInput("args", fmt.Sprintf("%s expects %d argument(s), got %d", cmd.Name(), n, len(args)))
		}
		return nil
	}
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return errors.InvalidInput("args", fmt.Sprintf("%s accepts at most %d argument(s), got %d", cmd.Name(), n, len(args)))
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return errors.InvalidInput("args", fmt.Sprintf("%s expects at least %d argument(s), got %d", cmd.Name(), n, len(args)))
		}
		return nil
	}
}

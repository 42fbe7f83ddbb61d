package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/api"
	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/server"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			adjust := func(cfg *app.Config) error {
				if cmd.Flags().Changed("host") {
					cfg.Server.Host = host
				}
				if cmd.Flags().Changed("port") {
					cfg.Server.Port = port
				}
				return nil
			}
			return c.withApp(cmd, adjust, func(ctx context.Context, a *app.App) error {
				srv := newAPIServer(a)
				if err := srv.Start(ctx); err != nil {
					return err
				}
				for _, r := range srv.Routes() {
					a.Summary().TrackRoute(r.Method, r.Path)
				}
				a.Summary().Write(c.stderr)
				fmt.Fprintf(c.stderr, "listening on http://%s\n", srv.Addr())

				a.WaitForSignal(ctx)
				return srv.Stop(context.Background())
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	return cmd
}

// newAPIServer mounts the /v1 API and the default endpoints on a server
// built from the app's configuration.
func newAPIServer(a *app.App) *server.Server {
	srv := server.New(a.Cfg.Server, a.Logger)
	srv.ApplyDefaults(a.Cfg.Name, a.HealthChecker())
	api.New(api.Deps{
		Transcriber: a.Transcriber,
		Analyzer:    a.Analyzer,
		Providers:   a.Providers,
		Templates:   a.Templates,
		Cache:       a.Cache,
		UploadDir:   a.Cfg.Media.TempDir,
		Log:         a.Logger,
	}).Register(srv.GinEngine(), srv.RateLimit())
	return srv
}

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/samuelizer/app"
	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/version"
)

func (c *cli) providersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect transcription and analysis providers",
	}
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List providers with their capabilities and models",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, nil, func(_ context.Context, a *app.App) error {
				descs := a.Providers.Descriptors()
				if asJSON {
					return writeJSON(c, descs)
				}
				tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tMODE\tCAPABILITY\tDEFAULT\tMODELS")
				for _, d := range descs {
					for _, capability := range d.Capabilities {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
							d.Name, d.Mode, capability, d.DefaultModels[capability], modelList(d, capability))
					}
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.AddCommand(list)
	return cmd
}

func modelList(d backend.Descriptor, capability backend.Capability) string {
	models := d.Models[capability]
	if len(models) == 0 {
		return "any"
	}
	return strings.Join(models, ", ")
}

func (c *cli) templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect analysis templates",
	}
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom templates",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, nil, func(_ context.Context, a *app.App) error {
				tpls := a.Templates.List()
				if asJSON {
					return writeJSON(c, tpls)
				}
				tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSECTIONS\tDESCRIPTION")
				for _, t := range tpls {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, strings.Join(t.Keys(), ","), t.Description)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.AddCommand(list)
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			info := version.Get()
			if short {
				fmt.Fprintln(c.stdout, info.Version)
				return nil
			}
			fmt.Fprintln(c.stdout, info.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}

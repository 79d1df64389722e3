// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"netfacts-cli/internal/config"
	"netfacts-cli/internal/facts"
)

// newFactsCommand creates the `netfacts facts` command.
func newFactsCommand(app *App) *cobra.Command {
	var (
		gatherSubset []string
		output       string
		parallel     bool
	)

	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Gather facts from the device",
		Long: `Gather facts from the device.

Each subset runs a fixed list of show commands and returns their raw output,
keyed by command, under ansible_net_<subset>. The default subset is always
gathered. Subsets prefixed with ! are excluded.`,
		Example: `  netfacts facts
  netfacts facts --gather-subset all,!hardware
  netfacts facts -s interfaces --output table`,
		Args: cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			return app.withDevice(cmd, func(ctx context.Context, cfg *config.Config, dev Device, logger *log.Logger) error {
				format, err := outputFormat(output, cmd.Flags().Changed("output"), cfg)
				if err != nil {
					return err
				}

				subset := cfg.Facts.GatherSubset
				if cmd.Flags().Changed("gather-subset") {
					subset = gatherSubset
				}

				gatherer := facts.NewGatherer(dev, facts.GathererOptions{
					Logger:   logger,
					Parallel: parallel || cfg.Facts.Parallel,
					Warnings: dev.Warnings(),
				})
				res, err := gatherer.Gather(ctx, subset)
				if err != nil {
					return err
				}
				return renderFacts(app.stdout, res, format)
			})
		}),
	}

	cmd.Flags().StringSliceVarP(&gatherSubset, "gather-subset", "s", nil, "subsets to gather (all, default, hardware, interfaces, routing, config; prefix with ! to exclude)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format (json, yaml, table)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "gather subsets concurrently")
	return cmd
}

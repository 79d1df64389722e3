// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"netfacts-cli/internal/cliconf"
	"netfacts-cli/internal/config"
)

var errNoConfigLines = errors.New("no configuration lines given")

// cliconfHandler runs with a ready cliconf session.
type cliconfHandler func(ctx context.Context, cfg *config.Config, cli *cliconf.Cliconf) error

// withCliconf opens the device and hands a cliconf session to fn.
func (a *App) withCliconf(cmd *cobra.Command, fn cliconfHandler) error {
	return a.withDevice(cmd, func(ctx context.Context, cfg *config.Config, dev Device, logger *log.Logger) error {
		return fn(ctx, cfg, cliconf.New(dev, logger))
	})
}

// newDeviceInfoCommand creates the `netfacts device-info` command.
func newDeviceInfoCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "device-info",
		Short: "Show what the device reports about itself",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			return app.withCliconf(cmd, func(ctx context.Context, cfg *config.Config, cli *cliconf.Cliconf) error {
				format, err := outputFormat(output, cmd.Flags().Changed("output"), cfg)
				if err != nil {
					return err
				}
				info, err := cli.DeviceInfo(ctx)
				if err != nil {
					return err
				}
				return renderDeviceInfo(app.stdout, info, format)
			})
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format (json, yaml, table)")
	return cmd
}

// newGetCommand creates the `netfacts get` command.
func newGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "get <command>",
		Short:   "Run one command on the device and print its output",
		Example: `  netfacts get "show version"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			return app.withCliconf(cmd, func(ctx context.Context, _ *config.Config, cli *cliconf.Cliconf) error {
				out, err := cli.Get(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return writeText(app.stdout, out)
			})
		}),
	}
}

// newConfigGetCommand creates the `netfacts config-get` command.
func newConfigGetCommand(app *App) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "config-get",
		Short: "Print the running or startup configuration",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			src := cliconf.ConfigSource(source)
			// Reject a bad source before dialing.
			if err := src.Validate(); err != nil {
				return err
			}
			return app.withCliconf(cmd, func(ctx context.Context, _ *config.Config, cli *cliconf.Cliconf) error {
				out, err := cli.GetConfig(ctx, src)
				if err != nil {
					return err
				}
				return writeText(app.stdout, out)
			})
		}),
	}
	cmd.Flags().StringVar(&source, "source", string(cliconf.SourceRunning), "configuration to fetch (running, startup)")
	return cmd
}

// newConfigEditCommand creates the `netfacts config-edit` command.
func newConfigEditCommand(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "config-edit [line...]",
		Short: "Apply configuration lines to the device",
		Long: `Apply configuration lines to the device.

Lines come from the arguments or, with --file, from a file ("-" reads stdin).
Blank lines and lines starting with ! are skipped. The first line the device
rejects stops the edit.`,
		Example: `  netfacts config-edit "hostname r2" "ntp server 192.0.2.123"
  netfacts config-edit --file changes.txt`,
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			lines := args
			if file != "" {
				fromFile, err := readConfigLines(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				lines = append(lines, fromFile...)
			}
			if len(lines) == 0 {
				return errNoConfigLines
			}

			return app.withCliconf(cmd, func(ctx context.Context, _ *config.Config, cli *cliconf.Cliconf) error {
				if err := cli.EditConfig(ctx, lines); err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s Applied %d configuration line(s)\n", SuccessStyle.Render("✓"), len(lines))
				return nil
			})
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read configuration lines from a file (- for stdin)")
	return cmd
}

// newCapabilitiesCommand creates the `netfacts capabilities` command.
func newCapabilitiesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Print the supported operations and device info as JSON",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			return app.withCliconf(cmd, func(ctx context.Context, _ *config.Config, cli *cliconf.Cliconf) error {
				doc, err := cli.CapabilitiesJSON(ctx)
				if err != nil {
					return err
				}
				return writeText(app.stdout, doc)
			})
		}),
	}
}

// writeText prints s, adding a trailing newline when missing.
func writeText(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}

func readConfigLines(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config lines: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "!") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read config lines: %w", err)
	}
	return lines, nil
}

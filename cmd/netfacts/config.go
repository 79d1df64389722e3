// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"netfacts-cli/internal/config"
)

// newConfigCommand creates the `netfacts config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage netfacts configuration",
		Long: `Manage netfacts configuration.

Configuration is stored in:
  - Linux: ~/.config/netfacts/config.cue
  - macOS: ~/Library/Application Support/netfacts/config.cue
  - Windows: %APPDATA%\netfacts\config.cue

Every value can be overridden with a NETFACTS_ environment variable,
for example NETFACTS_DEVICE_PASSWORD.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			return app.showConfig(cmd.Context())
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: app.run(func(_ *cobra.Command, _ []string) error {
			return app.initConfig()
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: app.run(func(_ *cobra.Command, _ []string) error {
			return app.showConfigPath()
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		}),
	})

	return cfgCmd
}

func (a *App) showConfig(ctx context.Context) error {
	cfg, path, err := config.LoadWithPath(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return configLoadError(err)
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	if path != "" {
		fmt.Fprintf(a.stdout, "%s: %s\n\n", CmdStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	t := newTable("Key", "Value").
		Row("device.host", orNone(cfg.Device.Host)).
		Row("device.port", cfg.Device.Port.String()).
		Row("device.username", orNone(cfg.Device.Username)).
		Row("device.password", masked(cfg.Device.Password)).
		Row("device.private_key_path", orNone(cfg.Device.PrivateKeyPath)).
		Row("device.known_hosts_path", orNone(cfg.Device.KnownHostsPath)).
		Row("device.insecure_ignore_host_key", strconv.FormatBool(cfg.Device.InsecureIgnoreHostKey)).
		Row("device.timeout", cfg.Device.Timeout.String()).
		Row("facts.gather_subset", strings.Join(cfg.Facts.GatherSubset, ",")).
		Row("facts.parallel", strconv.FormatBool(cfg.Facts.Parallel)).
		Row("emulator.listen", cfg.Emulator.Host+":"+cfg.Emulator.Port.String()).
		Row("emulator.username", cfg.Emulator.Username).
		Row("emulator.responses_file", orNone(cfg.Emulator.ResponsesFile)).
		Row("emulator.watch", strconv.FormatBool(cfg.Emulator.Watch)).
		Row("ui.color_scheme", cfg.UI.ColorScheme.String()).
		Row("ui.verbose", strconv.FormatBool(cfg.UI.Verbose)).
		Row("ui.output", cfg.UI.Output.String())
	fmt.Fprintln(a.stdout, t.Render())
	return nil
}

func (a *App) initConfig() error {
	cfgPath, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(cfgPath); statErr == nil {
		fmt.Fprintf(a.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), cfgPath)
		return nil
	}

	if _, err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	fmt.Fprintf(a.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

func (a *App) showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigFilePath()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(a.stdout, "Config file: %s\n", cfgPath)
	if a.flags.configPath != "" {
		fmt.Fprintf(a.stdout, "Override (--config): %s\n", a.flags.configPath)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func masked(s string) string {
	if s == "" {
		return "(none)"
	}
	return "********"
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"netfacts-cli/internal/config"
	"netfacts-cli/internal/emulator"
	"netfacts-cli/internal/issue"
	"netfacts-cli/pkg/types"
)

type emulateFlags struct {
	listen    string
	responses string
	hostKey   string
	watch     bool
}

// newEmulateCommand creates the `netfacts emulate` command.
func newEmulateCommand(app *App) *cobra.Command {
	var flags emulateFlags

	cmd := &cobra.Command{
		Use:   "emulate",
		Short: "Serve a dummy device over SSH",
		Long: `Serve a dummy device over SSH.

The emulator answers every command the facts subsets send, supports
"| include", "| exclude", "| begin" and "| grep" filters, and accepts
configuration lines between "configure terminal" and "end". Canned output
can be replaced with a TOML responses file, reloaded on change with --watch.`,
		Example: `  netfacts emulate
  netfacts emulate --listen 127.0.0.1:2200 --responses lab.toml --watch`,
		Args: cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := app.loadConfig(ctx)
			if err != nil {
				return err
			}
			emuCfg, err := flags.apply(cmd, cfg.Emulator)
			if err != nil {
				return err
			}
			return app.runEmulator(ctx, cfg, emuCfg)
		}),
	}

	cmd.Flags().StringVar(&flags.listen, "listen", "", "address to listen on (default from config, 127.0.0.1:2222)")
	cmd.Flags().StringVar(&flags.responses, "responses", "", "TOML file with canned command output")
	cmd.Flags().StringVar(&flags.hostKey, "host-key", "", "host key file, created when missing")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "reload the responses file when it changes")
	return cmd
}

// apply overlays the flags the user set on the configured emulator section.
func (f emulateFlags) apply(cmd *cobra.Command, emu config.EmulatorConfig) (config.EmulatorConfig, error) {
	if cmd.Flags().Changed("listen") {
		host, portStr, err := net.SplitHostPort(f.listen)
		if err != nil {
			return emu, fmt.Errorf("invalid --listen address %q: %w", f.listen, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return emu, fmt.Errorf("invalid --listen port %q", portStr)
		}
		emu.Host = host
		emu.Port = types.Port(port)
	}
	if cmd.Flags().Changed("responses") {
		emu.ResponsesFile = f.responses
	}
	if cmd.Flags().Changed("host-key") {
		emu.HostKeyPath = f.hostKey
	}
	if cmd.Flags().Changed("watch") {
		emu.Watch = f.watch
	}
	return emu, emu.Validate()
}

func (a *App) runEmulator(ctx context.Context, cfg *config.Config, emuCfg config.EmulatorConfig) error {
	logger := a.logger(cfg)
	if !cfg.UI.Verbose {
		// Session and reload events are the point of running the emulator.
		logger.SetLevel(log.InfoLevel)
	}

	responses := emulator.DefaultResponses()
	if emuCfg.ResponsesFile != "" {
		r, err := emulator.LoadResponses(emuCfg.ResponsesFile)
		if err != nil {
			return emulatorError(emuCfg, err)
		}
		responses = r
	}

	device := emulator.NewDevice(responses, logger)
	srv := emulator.New(emulator.Config{
		Host:        emuCfg.Host,
		Port:        int(emuCfg.Port),
		Username:    emuCfg.Username,
		Password:    emuCfg.Password,
		HostKeyPath: emuCfg.HostKeyPath,
		Logger:      logger,
	}, device)
	if err := srv.Start(ctx); err != nil {
		return emulatorError(emuCfg, err)
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			logger.Error("stop emulator", "err", err)
		}
	}()

	fmt.Fprintf(a.stdout, "%s Emulator listening on %s (user %s)\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(srv.Address()), emuCfg.Username)

	watchErr := make(chan error, 1)
	if emuCfg.Watch {
		go func() {
			watchErr <- emulator.WatchResponses(ctx, emuCfg.ResponsesFile, device, 0, logger)
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-watchErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watch responses: %w", err)
		}
		<-ctx.Done()
		return nil
	case err, ok := <-srv.Err():
		if !ok {
			return nil
		}
		return emulatorError(emuCfg, err)
	}
}

func emulatorError(emuCfg config.EmulatorConfig, err error) error {
	return issue.NewErrorContext().
		WithOperation("start emulator").
		WithResource(net.JoinHostPort(emuCfg.Host, emuCfg.Port.String())).
		WithIssue(issue.EmulatorStartFailedId).
		Wrap(err).
		BuildError()
}

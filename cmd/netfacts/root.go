// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the netfacts command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "netfacts",
		Short: "Gather facts from network devices over SSH",
		Long: TitleStyle.Render("netfacts") + SubtitleStyle.Render(" - Gather facts from network devices over SSH") + `

netfacts runs a fixed set of show commands on a device, grouped into
subsets (default, hardware, interfaces, routing, config), and reports the
raw output of each command keyed by command line.

` + SubtitleStyle.Render("Examples:") + `
  netfacts --host 192.0.2.1 --user admin facts
  netfacts facts --gather-subset all,!hardware --output yaml
  netfacts config-get --source startup
  netfacts emulate                 Serve a dummy device on 127.0.0.1:2222`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is $HOME/.config/netfacts/config.cue)")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVarP(&app.flags.host, "host", "H", "", "device host name or address")
	pf.IntVarP(&app.flags.port, "port", "p", 0, "device SSH port (default 22)")
	pf.StringVarP(&app.flags.user, "user", "u", "", "SSH user name")
	pf.StringVar(&app.flags.password, "password", "", "SSH password (prefer NETFACTS_DEVICE_PASSWORD)")
	pf.StringVarP(&app.flags.identity, "identity", "i", "", "private key file for public key authentication")
	pf.BoolVar(&app.flags.insecure, "insecure", false, "skip host key verification")

	rootCmd.AddCommand(
		newFactsCommand(app),
		newDeviceInfoCommand(app),
		newGetCommand(app),
		newConfigGetCommand(app),
		newConfigEditCommand(app),
		newCapabilitiesCommand(app),
		newEmulateCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the command's exit code.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// errorHandler prints errors that were not rendered by the command itself,
// such as flag parsing failures.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Rendered {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
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
	"netfacts-cli/internal/facts"
	"netfacts-cli/internal/issue"
	"netfacts-cli/internal/transport"
	"netfacts-cli/pkg/types"
)

var errNoHost = errors.New("no device host configured")

type (
	// Device is an open line to one network device.
	Device interface {
		facts.Executor
		cliconf.Conn
		Warnings() []string
		Close() error
	}

	// Connector creates a Device for a device config.
	Connector func(cfg config.DeviceConfig, logger *log.Logger) (Device, error)

	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and goes through it for config, devices and output.
	App struct {
		Config  config.Provider
		Connect Connector
		stdout  io.Writer
		stderr  io.Writer
		flags   globalFlags

		// colorScheme is taken from the last loaded config
		colorScheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  config.Provider
		Connect Connector
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// globalFlags holds the persistent flags shared by every command.
	globalFlags struct {
		configPath string
		verbose    bool
		host       string
		port       int
		user       string
		password   string
		identity   string
		insecure   bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Connect == nil {
		deps.Connect = connectSSH
	}
	return &App{
		Config:  deps.Config,
		Connect: deps.Connect,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}

func connectSSH(cfg config.DeviceConfig, logger *log.Logger) (Device, error) {
	c, err := transport.New(cfg, transport.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// loadConfig loads configuration honoring --config and wraps failures with
// the config catalog entry.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, configLoadError(err)
	}
	if a.flags.verbose {
		cfg.UI.Verbose = true
	}
	a.colorScheme = cfg.UI.ColorScheme
	return cfg, nil
}

// configLoadError links a config failure to the config catalog entry,
// reusing the loader's actionable error when there is one.
func configLoadError(err error) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.Issue == 0 {
			ae.Issue = issue.ConfigLoadFailedId
		}
		return err
	}
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// logger returns a logger writing to stderr; debug level when verbose.
func (a *App) logger(cfg *config.Config) *log.Logger {
	level := log.WarnLevel
	if a.flags.verbose || (cfg != nil && cfg.UI.Verbose) {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Level:  level,
		Prefix: config.AppName,
	})
}

// deviceConfig overlays the connection flags the user set on the
// configured device section.
func (a *App) deviceConfig(cmd *cobra.Command, cfg *config.Config) (config.DeviceConfig, error) {
	dev := cfg.Device
	flags := cmd.Flags()

	if flags.Changed("host") {
		dev.Host = a.flags.host
	}
	if flags.Changed("port") {
		port := types.Port(a.flags.port)
		if err := port.Validate(); err != nil {
			return dev, err
		}
		dev.Port = port
	}
	if flags.Changed("user") {
		dev.Username = a.flags.user
	}
	if flags.Changed("password") {
		dev.Password = a.flags.password
	}
	if flags.Changed("identity") {
		dev.PrivateKeyPath = a.flags.identity
	}
	if flags.Changed("insecure") {
		dev.InsecureIgnoreHostKey = a.flags.insecure
	}

	if strings.TrimSpace(dev.Host) == "" {
		return dev, issue.NewErrorContext().
			WithOperation("connect to device").
			WithSuggestion("Pass --host or set device.host in the config file").
			WithIssue(issue.DeviceNotConfiguredId).
			Wrap(errNoHost).
			BuildError()
	}
	return dev, nil
}

// withDevice loads config, opens the device and runs fn. The device is
// closed afterwards and connection warnings go to stderr.
func (a *App) withDevice(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, dev Device, logger *log.Logger) error) error {
	ctx := cmd.Context()

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	devCfg, err := a.deviceConfig(cmd, cfg)
	if err != nil {
		return err
	}

	logger := a.logger(cfg)
	dev, err := a.Connect(devCfg, logger)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("prepare connection").
			WithResource(devCfg.Address()).
			Wrap(err).
			BuildError()
	}
	defer func() {
		if closeErr := dev.Close(); closeErr != nil {
			logger.Debug("close device", "err", closeErr)
		}
	}()

	for _, w := range dev.Warnings() {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+w)
	}

	return fn(ctx, cfg, dev, logger)
}

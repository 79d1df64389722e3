// SPDX-License-Identifier: MPL-2.0

package cliconf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// NetworkOS is the network_os value reported by DeviceInfo.
	NetworkOS = "netfacts.dummytmpl"

	// SourceRunning selects the running configuration.
	SourceRunning ConfigSource = "running"
	// SourceStartup selects the startup configuration.
	SourceStartup ConfigSource = "startup"

	cmdShowVersion      = "show version"
	cmdShowRunningAll   = "show running-config all"
	cmdShowStartup      = "show startup-config"
	cmdConfigureTerm    = "configure terminal"
	cmdEndConfiguration = "end"
)

// ErrInvalidSource is the sentinel error wrapped by InvalidSourceError.
var ErrInvalidSource = errors.New("unsupported configuration source")

type (
	// ConfigSource names which configuration GetConfig reads.
	ConfigSource string

	// InvalidSourceError is returned when GetConfig is asked for a source
	// the device cannot serve. It wraps ErrInvalidSource.
	InvalidSourceError struct {
		Source ConfigSource
	}

	// Conn sends one command to the device and returns its output.
	// A failing command is an error.
	Conn interface {
		Send(ctx context.Context, command string) (string, error)
	}

	// DeviceInfo is what the device reports about itself. Only NetworkOS and
	// Debug are filled; the remaining fields need output parsing.
	DeviceInfo struct {
		NetworkOS  string `json:"network_os" yaml:"network_os"`
		OSVersion  string `json:"os_version,omitempty" yaml:"os_version,omitempty"`
		OSHWID     string `json:"os_hwid,omitempty" yaml:"os_hwid,omitempty"`
		OSHostname string `json:"os_hostname,omitempty" yaml:"os_hostname,omitempty"`
		Debug      string `json:"debug" yaml:"debug"`
	}

	// Capabilities describes what the plugin supports.
	Capabilities struct {
		RPC              []string         `json:"rpc"`
		NetworkAPI       string           `json:"network_api"`
		DeviceInfo       DeviceInfo       `json:"device_info"`
		DeviceOperations DeviceOperations `json:"device_operations"`
	}

	// DeviceOperations lists optional device features.
	DeviceOperations struct {
		SupportsCommit       bool `json:"supports_commit"`
		SupportsRollback     bool `json:"supports_rollback"`
		SupportsReplace      bool `json:"supports_replace"`
		SupportsOnboxDiff    bool `json:"supports_onbox_diff"`
		SupportsMultiline    bool `json:"supports_multiline_delimiter"`
		SupportsGenerateDiff bool `json:"supports_generate_diff"`
	}

	// Cliconf runs CLI operations over a Conn.
	Cliconf struct {
		conn   Conn
		logger *log.Logger
	}
)

// String returns the string representation of the ConfigSource.
func (s ConfigSource) String() string { return string(s) }

// Validate returns nil if the source is running or startup.
func (s ConfigSource) Validate() error {
	switch s {
	case SourceRunning, SourceStartup:
		return nil
	default:
		return &InvalidSourceError{Source: s}
	}
}

// Error implements the error interface for InvalidSourceError.
func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("fetching configuration from %s is not supported", e.Source)
}

// Unwrap returns ErrInvalidSource for errors.Is() compatibility.
func (e *InvalidSourceError) Unwrap() error { return ErrInvalidSource }

// New creates a Cliconf. A nil logger discards output.
func New(conn Conn, logger *log.Logger) *Cliconf {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cliconf{conn: conn, logger: logger.WithPrefix("cliconf")}
}

// DeviceInfo queries "show version" and reports it as debug text.
func (c *Cliconf) DeviceInfo(ctx context.Context) (DeviceInfo, error) {
	reply, err := c.conn.Send(ctx, cmdShowVersion)
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("get device info: %w", err)
	}
	return DeviceInfo{
		NetworkOS: NetworkOS,
		Debug:     strings.TrimSpace(reply),
	}, nil
}

// GetConfig returns the running or startup configuration.
func (c *Cliconf) GetConfig(ctx context.Context, source ConfigSource) (string, error) {
	if err := source.Validate(); err != nil {
		return "", err
	}

	cmd := cmdShowRunningAll
	if source == SourceStartup {
		cmd = cmdShowStartup
	}

	c.logger.Debug("fetching configuration", "source", source)
	return c.conn.Send(ctx, cmd)
}

// EditConfig enters configuration mode, sends each line, and leaves it.
// It stops at the first failing command.
func (c *Cliconf) EditConfig(ctx context.Context, lines []string) error {
	cmds := make([]string, 0, len(lines)+2)
	cmds = append(cmds, cmdConfigureTerm)
	cmds = append(cmds, lines...)
	cmds = append(cmds, cmdEndConfiguration)

	for _, cmd := range cmds {
		if _, err := c.conn.Send(ctx, cmd); err != nil {
			return fmt.Errorf("edit config: %q: %w", cmd, err)
		}
	}
	c.logger.Info("configuration applied", "lines", len(lines))
	return nil
}

// Get runs a single command and returns its output.
func (c *Cliconf) Get(ctx context.Context, command string) (string, error) {
	return c.conn.Send(ctx, command)
}

// Capabilities reports the plugin's capabilities, including device info.
func (c *Cliconf) Capabilities(ctx context.Context) (Capabilities, error) {
	info, err := c.DeviceInfo(ctx)
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{
		RPC:        []string{"get_config", "edit_config", "get_capabilities", "get"},
		NetworkAPI: "cliconf",
		DeviceInfo: info,
	}, nil
}

// CapabilitiesJSON returns Capabilities as a JSON document.
func (c *Cliconf) CapabilitiesJSON(ctx context.Context) (string, error) {
	caps, err := c.Capabilities(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(caps)
	if err != nil {
		return "", fmt.Errorf("encode capabilities: %w", err)
	}
	return string(data), nil
}

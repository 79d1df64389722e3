// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"netfacts-cli/internal/facts"
	"netfacts-cli/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// OutputJSON prints results as indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML prints results as YAML.
	OutputYAML OutputFormat = "yaml"
	// OutputTable prints results as styled tables.
	OutputTable OutputFormat = "table"

	// DefaultSSHPort is dialed when no device port is configured.
	DefaultSSHPort types.Port = 22
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidDeviceConfig is the sentinel error wrapped by InvalidDeviceConfigError.
	ErrInvalidDeviceConfig = errors.New("invalid device config")
	// ErrInvalidEmulatorConfig is the sentinel error wrapped by InvalidEmulatorConfigError.
	ErrInvalidEmulatorConfig = errors.New("invalid emulator config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// OutputFormat selects how command results are printed.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidDeviceConfigError is returned when a DeviceConfig has invalid fields.
	// It wraps ErrInvalidDeviceConfig and collects field-level errors.
	InvalidDeviceConfigError struct {
		FieldErrors []error
	}

	// InvalidEmulatorConfigError is returned when an EmulatorConfig has invalid fields.
	// It wraps ErrInvalidEmulatorConfig and collects field-level errors.
	InvalidEmulatorConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Device is the target device to connect to
		Device DeviceConfig `json:"device" mapstructure:"device"`
		// Facts configures fact gathering
		Facts FactsConfig `json:"facts" mapstructure:"facts"`
		// Emulator configures the built-in dummy device
		Emulator EmulatorConfig `json:"emulator" mapstructure:"emulator"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// DeviceConfig describes how to reach the device over SSH.
	DeviceConfig struct {
		Host     string     `json:"host" mapstructure:"host"`
		Port     types.Port `json:"port" mapstructure:"port"`
		Username string     `json:"username" mapstructure:"username"`
		Password string     `json:"password" mapstructure:"password"`
		// PrivateKeyPath points to a PEM private key for public key auth
		PrivateKeyPath string `json:"private_key_path" mapstructure:"private_key_path"`
		// KnownHostsPath is the known_hosts file used to verify the device.
		// Empty means ~/.ssh/known_hosts.
		KnownHostsPath string `json:"known_hosts_path" mapstructure:"known_hosts_path"`
		// InsecureIgnoreHostKey disables host key verification
		InsecureIgnoreHostKey bool `json:"insecure_ignore_host_key" mapstructure:"insecure_ignore_host_key"`
		// Timeout bounds the TCP dial and SSH handshake
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// FactsConfig configures fact gathering.
	FactsConfig struct {
		// GatherSubset is used when no --gather-subset flag is given
		GatherSubset []string `json:"gather_subset" mapstructure:"gather_subset"`
		// Parallel gathers subsets concurrently
		Parallel bool `json:"parallel" mapstructure:"parallel"`
	}

	// EmulatorConfig configures the dummy device SSH server.
	EmulatorConfig struct {
		Host     string     `json:"host" mapstructure:"host"`
		Port     types.Port `json:"port" mapstructure:"port"`
		Username string     `json:"username" mapstructure:"username"`
		Password string     `json:"password" mapstructure:"password"`
		// HostKeyPath stores the server host key; generated when missing
		HostKeyPath string `json:"host_key_path" mapstructure:"host_key_path"`
		// ResponsesFile is a TOML file overriding the canned command output
		ResponsesFile string `json:"responses_file" mapstructure:"responses_file"`
		// Watch reloads ResponsesFile when it changes
		Watch bool `json:"watch" mapstructure:"watch"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Output selects the result format
		Output OutputFormat `json:"output" mapstructure:"output"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Port:    DefaultSSHPort,
			Timeout: 10 * time.Second,
		},
		Facts: FactsConfig{
			GatherSubset: append([]string(nil), facts.DefaultGatherSubset...),
		},
		Emulator: EmulatorConfig{
			Host:     "127.0.0.1",
			Port:     2222,
			Username: "admin",
			Password: "admin",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Output:      OutputJSON,
		},
	}
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// Validate returns nil if the ColorScheme is one of the known schemes.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: c}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the OutputFormat.
func (o OutputFormat) String() string { return string(o) }

// Validate returns nil if the OutputFormat is one of the known formats.
func (o OutputFormat) Validate() error {
	switch o {
	case OutputJSON, OutputYAML, OutputTable:
		return nil
	default:
		return &InvalidOutputFormatError{Value: o}
	}
}

// Error implements the error interface for InvalidOutputFormatError.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: json, yaml, table)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// Address returns host:port for dialing, using the SSH port when unset.
func (d DeviceConfig) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port.OrDefault(DefaultSSHPort))
}

// Validate checks the fields that can be checked without the network.
// An empty Host is allowed here; commands that need a device check it.
func (d DeviceConfig) Validate() error {
	var errs []error
	if err := d.Port.Validate(); err != nil {
		errs = append(errs, err)
	}
	if d.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout %s must not be negative", d.Timeout))
	}
	if strings.TrimSpace(d.Host) != d.Host {
		errs = append(errs, fmt.Errorf("host %q has surrounding whitespace", d.Host))
	}
	if len(errs) > 0 {
		return &InvalidDeviceConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidDeviceConfigError.
func (e *InvalidDeviceConfigError) Error() string {
	return fmt.Sprintf("invalid device config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidDeviceConfig for errors.Is() compatibility.
func (e *InvalidDeviceConfigError) Unwrap() error { return ErrInvalidDeviceConfig }

// Validate checks the emulator fields.
func (e EmulatorConfig) Validate() error {
	var errs []error
	if err := e.Port.Validate(); err != nil {
		errs = append(errs, err)
	}
	if e.Username == "" {
		errs = append(errs, errors.New("username must not be empty"))
	}
	if e.Watch && e.ResponsesFile == "" {
		errs = append(errs, errors.New("watch requires responses_file"))
	}
	if len(errs) > 0 {
		return &InvalidEmulatorConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidEmulatorConfigError.
func (e *InvalidEmulatorConfigError) Error() string {
	return fmt.Sprintf("invalid emulator config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidEmulatorConfig for errors.Is() compatibility.
func (e *InvalidEmulatorConfigError) Unwrap() error { return ErrInvalidEmulatorConfig }

// Validate checks every section, including that the configured gather
// subset resolves.
func (c Config) Validate() error {
	var errs []error
	if err := c.Device.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := facts.Resolve(c.Facts.GatherSubset); err != nil {
		errs = append(errs, err)
	}
	if err := c.Emulator.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.Output.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig and the field errors, so errors.Is
// matches both the config sentinel and any field-level sentinel.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

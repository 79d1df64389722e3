// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"netfacts-cli/internal/cueutil"
	"netfacts-cli/internal/issue"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "netfacts"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides (NETFACTS_DEVICE_HOST, ...).
	EnvPrefix = "NETFACTS"

	// maxConfigFileSize guards against feeding huge files to the CUE compiler.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the netfacts configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. It returns the path of the file that was loaded,
// or "" when only defaults and environment applied.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'netfacts config dump' to see a valid configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Cross-field rules CUE cannot express (e.g. the gather subset must resolve).
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Valid gather subsets: default, hardware, interfaces, routing, config, all (prefix with ! to exclude)").
			WithSuggestion("Valid output formats: json, yaml, table").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("device.host", defaults.Device.Host)
	v.SetDefault("device.port", int(defaults.Device.Port))
	v.SetDefault("device.username", defaults.Device.Username)
	v.SetDefault("device.password", defaults.Device.Password)
	v.SetDefault("device.private_key_path", defaults.Device.PrivateKeyPath)
	v.SetDefault("device.known_hosts_path", defaults.Device.KnownHostsPath)
	v.SetDefault("device.insecure_ignore_host_key", defaults.Device.InsecureIgnoreHostKey)
	v.SetDefault("device.timeout", defaults.Device.Timeout)
	v.SetDefault("facts.gather_subset", defaults.Facts.GatherSubset)
	v.SetDefault("facts.parallel", defaults.Facts.Parallel)
	v.SetDefault("emulator.host", defaults.Emulator.Host)
	v.SetDefault("emulator.port", int(defaults.Emulator.Port))
	v.SetDefault("emulator.username", defaults.Emulator.Username)
	v.SetDefault("emulator.password", defaults.Emulator.Password)
	v.SetDefault("emulator.host_key_path", defaults.Emulator.HostKeyPath)
	v.SetDefault("emulator.responses_file", defaults.Emulator.ResponsesFile)
	v.SetDefault("emulator.watch", defaults.Emulator.Watch)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.output", defaults.UI.Output)
}

// resolveConfigPath picks the file to load: the explicit path (which must
// exist), then the config directory, then the working directory.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'netfacts config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}

	cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(cuePath) {
		return cuePath, nil
	}

	localCuePath := ConfigFileName + "." + ConfigFileExt
	if fileExists(localCuePath) {
		return localCuePath, nil
	}

	// No config file: defaults and environment only.
	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.Decode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
		cueutil.WithMaxFileSize(maxConfigFileSize),
	)
	if err != nil {
		return err
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// ConfigFilePath returns the default config file location.
func ConfigFilePath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// CreateDefaultConfig creates a default config file if it doesn't exist
// and returns its path.
func CreateDefaultConfig() (string, error) {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil // File exists
	}

	if err := writeConfig(cfgPath, DefaultConfig()); err != nil {
		return "", err
	}
	return cfgPath, nil
}

// Save writes the configuration to the default config file.
func Save(cfg *Config) error {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return err
	}
	return writeConfig(cfgPath, cfg)
}

func writeConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Passwords may end up in this file.
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// netfacts configuration file\n\n")

	sb.WriteString("device: {\n")
	writeString(&sb, 1, "host", cfg.Device.Host)
	fmt.Fprintf(&sb, "\tport: %d\n", cfg.Device.Port)
	writeString(&sb, 1, "username", cfg.Device.Username)
	writeString(&sb, 1, "password", cfg.Device.Password)
	writeString(&sb, 1, "private_key_path", cfg.Device.PrivateKeyPath)
	writeString(&sb, 1, "known_hosts_path", cfg.Device.KnownHostsPath)
	fmt.Fprintf(&sb, "\tinsecure_ignore_host_key: %v\n", cfg.Device.InsecureIgnoreHostKey)
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.Device.Timeout.String())
	sb.WriteString("}\n")

	sb.WriteString("\nfacts: {\n")
	sb.WriteString("\tgather_subset: [")
	for i, token := range cfg.Facts.GatherSubset {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", token)
	}
	sb.WriteString("]\n")
	fmt.Fprintf(&sb, "\tparallel: %v\n", cfg.Facts.Parallel)
	sb.WriteString("}\n")

	sb.WriteString("\nemulator: {\n")
	writeString(&sb, 1, "host", cfg.Emulator.Host)
	fmt.Fprintf(&sb, "\tport: %d\n", cfg.Emulator.Port)
	writeString(&sb, 1, "username", cfg.Emulator.Username)
	writeString(&sb, 1, "password", cfg.Emulator.Password)
	writeString(&sb, 1, "host_key_path", cfg.Emulator.HostKeyPath)
	writeString(&sb, 1, "responses_file", cfg.Emulator.ResponsesFile)
	fmt.Fprintf(&sb, "\twatch: %v\n", cfg.Emulator.Watch)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\toutput: %q\n", cfg.UI.Output)
	sb.WriteString("}\n")

	return sb.String()
}

// writeString emits a quoted string field, skipping empty values.
func writeString(sb *strings.Builder, indent int, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "%s%s: %q\n", strings.Repeat("\t", indent), key, value)
}

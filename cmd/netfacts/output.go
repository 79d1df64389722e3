// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"netfacts-cli/internal/cliconf"
	"netfacts-cli/internal/config"
	"netfacts-cli/internal/facts"
)

// outputFormat picks the --output flag when set, else the configured format.
func outputFormat(flagValue string, changed bool, cfg *config.Config) (config.OutputFormat, error) {
	format := cfg.UI.Output
	if changed {
		format = config.OutputFormat(flagValue)
	}
	if err := format.Validate(); err != nil {
		return "", err
	}
	return format, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(headers...)
}

// renderFacts prints a gather result in the requested format.
func renderFacts(w io.Writer, res *facts.Result, format config.OutputFormat) error {
	switch format {
	case config.OutputYAML:
		return writeYAML(w, res)
	case config.OutputTable:
		return renderFactsTable(w, res)
	default:
		return writeJSON(w, res)
	}
}

func renderFactsTable(w io.Writer, res *facts.Result) error {
	subsets, _ := res.Facts[facts.FactPrefix+"gather_subset"].([]string)
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Gathered subsets:"), strings.Join(subsets, ", "))

	for _, name := range subsets {
		rec, ok := res.Facts.Record(facts.SubsetName(name))
		if !ok {
			continue
		}
		t := newTable("Command", "Output")
		for _, co := range rec {
			t.Row(co.Command, strings.TrimRight(co.Output, "\n"))
		}
		fmt.Fprintf(w, "\n%s\n%s\n", SubtitleStyle.Render(facts.FactPrefix+name), t.Render())
	}

	for _, warning := range res.Warnings {
		fmt.Fprintln(w, WarningStyle.Render("Warning: ")+warning)
	}
	return nil
}

// renderDeviceInfo prints device info in the requested format.
func renderDeviceInfo(w io.Writer, info cliconf.DeviceInfo, format config.OutputFormat) error {
	switch format {
	case config.OutputYAML:
		return writeYAML(w, info)
	case config.OutputTable:
		t := newTable("Field", "Value").
			Row("network_os", info.NetworkOS).
			Row("debug", info.Debug)
		fmt.Fprintln(w, t.Render())
		return nil
	default:
		return writeJSON(w, info)
	}
}

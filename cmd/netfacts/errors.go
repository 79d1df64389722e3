// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"netfacts-cli/internal/cliconf"
	"netfacts-cli/internal/config"
	"netfacts-cli/internal/facts"
	"netfacts-cli/internal/issue"
	"netfacts-cli/internal/transport"
	"netfacts-cli/pkg/types"
)

type runFunc func(cmd *cobra.Command, args []string) error

// run adapts a handler so its failures are rendered with catalog guidance
// and turned into an ExitError carrying the process exit code.
func (a *App) run(fn runFunc) runFunc {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		cmd.SilenceUsage = true
		return a.renderError(err)
	}
}

// classifyError maps a failure to a catalog entry and an exit code.
// A catalog entry linked explicitly through an ActionableError wins.
func classifyError(err error) (issue.Id, types.ExitCode) {
	var (
		id   issue.Id
		code = types.ExitFailure
	)

	switch {
	case errors.Is(err, facts.ErrInvalidSubset):
		id, code = issue.InvalidGatherSubsetId, types.ExitUsage
	case errors.Is(err, cliconf.ErrInvalidSource):
		id, code = issue.UnsupportedConfigSourceId, types.ExitUsage
	case errors.Is(err, transport.ErrAuth):
		id, code = issue.AuthenticationFailedId, types.ExitDevice
	case errors.Is(err, transport.ErrHostKey):
		id, code = issue.HostKeyRejectedId, types.ExitDevice
	case errors.Is(err, transport.ErrDial):
		id, code = issue.DeviceUnreachableId, types.ExitDevice
	case errors.Is(err, transport.ErrCommandFailed):
		id = issue.CommandRejectedId
	case errors.Is(err, types.ErrInvalidPort), errors.Is(err, config.ErrInvalidOutputFormat):
		code = types.ExitUsage
	}

	if linked := issue.IssueOf(err); linked != nil {
		id = linked.Id()
		switch id {
		case issue.DeviceNotConfiguredId, issue.ConfigLoadFailedId:
			code = types.ExitUsage
		}
	}
	return id, code
}

// renderError prints err and its catalog page to stderr.
func (a *App) renderError(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	id, code := classifyError(err)
	fmt.Fprintf(a.stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.flags.verbose))
	if id != 0 {
		renderIssue(a.stderr, id, a.issueStyle())
	}
	return &ExitError{Code: code, Err: err, Rendered: true}
}

// issueStyle picks the glamour style for catalog pages.
func (a *App) issueStyle() string {
	if a.colorScheme != "" {
		return a.colorScheme.String()
	}
	return config.ColorSchemeAuto.String()
}

func renderIssue(w io.Writer, id issue.Id, style string) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(style)
	if err != nil {
		log.Warn("failed to render issue catalog entry", "issue", id, "err", err)
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

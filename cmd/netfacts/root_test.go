// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"

	"netfacts-cli/internal/config"
	"netfacts-cli/internal/emulator"
	"netfacts-cli/internal/testutil"
	"netfacts-cli/pkg/types"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

// cliResult captures one CLI run.
type cliResult struct {
	stdout string
	stderr string
	err    error
}

func (r cliResult) exitCode() types.ExitCode {
	if r.err == nil {
		return types.ExitOK
	}
	var exitErr *ExitError
	if errors.As(r.err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// isolateConfig points the config directory at an empty temp dir and runs
// from another one, so no user config leaks in. Not parallel-safe.
func isolateConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	config.SetConfigDirOverride(dir)
	t.Cleanup(config.Reset)
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))
	return dir
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	return runCLIContext(t, context.Background(), args...)
}

func runCLIContext(t *testing.T, ctx context.Context, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{Stdout: &stdout, Stderr: &stderr})
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(ctx)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// startEmulator serves the dummy device and returns the connection flags.
func startEmulator(t *testing.T) (*emulator.Server, []string) {
	t.Helper()

	srv := emulator.New(emulator.Config{Username: "admin", Password: "admin"},
		emulator.NewDevice(emulator.DefaultResponses(), nil))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("emulator Start() error: %v", err)
	}
	t.Cleanup(testutil.DeferStop(t, srv))

	return srv, []string{
		"--host", "127.0.0.1",
		"--port", strconv.Itoa(srv.Port()),
		"--user", "admin",
		"--password", "admin",
		"--insecure",
	}
}

func withArgs(conn []string, args ...string) []string {
	return append(append([]string(nil), conn...), args...)
}

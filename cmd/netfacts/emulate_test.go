// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"netfacts-cli/internal/config"
	"netfacts-cli/pkg/types"
)

// syncBuffer is a bytes.Buffer safe for one writer and one poller.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEmulateFlags_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    config.EmulatorConfig
		wantErr bool
	}{
		{
			name: "defaults kept",
			want: config.DefaultConfig().Emulator,
		},
		{
			name: "listen",
			args: []string{"--listen", "0.0.0.0:2200"},
			want: func() config.EmulatorConfig {
				e := config.DefaultConfig().Emulator
				e.Host, e.Port = "0.0.0.0", 2200
				return e
			}(),
		},
		{
			name:    "listen without port",
			args:    []string{"--listen", "localhost"},
			wantErr: true,
		},
		{
			name:    "port out of range",
			args:    []string{"--listen", "127.0.0.1:70000"},
			wantErr: true,
		},
		{
			name:    "watch needs a file",
			args:    []string{"--watch"},
			wantErr: true,
		},
		{
			name: "responses and watch",
			args: []string{"--responses", "lab.toml", "--watch"},
			want: func() config.EmulatorConfig {
				e := config.DefaultConfig().Emulator
				e.ResponsesFile, e.Watch = "lab.toml", true
				return e
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var flags emulateFlags
			cmd := &cobra.Command{Use: "emulate"}
			cmd.Flags().StringVar(&flags.listen, "listen", "", "")
			cmd.Flags().StringVar(&flags.responses, "responses", "", "")
			cmd.Flags().StringVar(&flags.hostKey, "host-key", "", "")
			cmd.Flags().BoolVar(&flags.watch, "watch", false, "")
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}

			got, err := flags.apply(cmd, config.DefaultConfig().Emulator)
			if tt.wantErr {
				if err == nil {
					t.Errorf("apply() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("apply() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("apply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEmulateCommand_ServesUntilCanceled(t *testing.T) {
	isolateConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	app := NewApp(Dependencies{Stdout: &stdout, Stderr: &stderr})
	root := NewRootCommand(app)
	root.SetArgs([]string{"emulate", "--listen", "127.0.0.1:0"})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(stdout.String(), "Emulator listening on") {
		if time.Now().After(deadline) {
			t.Fatalf("emulator never reported its address; stderr: %s", stderr.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("emulate returned %v after cancel", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("emulate did not stop after cancel")
	}
}

func TestEmulateCommand_BadResponsesFile(t *testing.T) {
	isolateConfig(t)

	res := runCLI(t, "emulate", "--listen", "127.0.0.1:0", "--responses", "missing.toml")
	if got := res.exitCode(); got != types.ExitFailure {
		t.Fatalf("exit code = %d, want %d (err %v)", got, types.ExitFailure, res.err)
	}
	if !strings.Contains(res.stderr, "emulator") {
		t.Errorf("stderr = %q, want the emulator catalog page", res.stderr)
	}
}

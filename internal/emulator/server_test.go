// SPDX-License-Identifier: MPL-2.0

package emulator

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gossh "golang.org/x/crypto/ssh"

	"netfacts-cli/internal/testutil"
)

const (
	testUser     = "admin"
	testPassword = "s3cret"
)

func startServer(t *testing.T, cfg Config) (*Server, *Device) {
	t.Helper()

	if cfg.Username == "" {
		cfg.Username, cfg.Password = testUser, testPassword
	}
	device := NewDevice(DefaultResponses(), nil)
	srv := New(cfg, device)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(testutil.DeferStop(t, srv))
	return srv, device
}

func dial(t *testing.T, addr, user, password string) (*gossh.Client, error) {
	t.Helper()
	return gossh.Dial("tcp", addr, &gossh.ClientConfig{
		User:            user,
		Auth:            []gossh.AuthMethod{gossh.Password(password)},
		HostKeyCallback: gossh.InsecureIgnoreHostKey(), //nolint:gosec // test server
		Timeout:         5 * time.Second,
	})
}

func execOn(t *testing.T, client *gossh.Client, command string) (string, error) {
	t.Helper()
	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer func() { _ = sess.Close() }()
	out, err := sess.CombinedOutput(command)
	return string(out), err
}

func TestServer_StartStop(t *testing.T) {
	t.Parallel()

	srv := New(Config{Username: testUser, Password: testPassword}, NewDevice(DefaultResponses(), nil))
	if srv.State() != StateCreated {
		t.Fatalf("State() = %s, want created", srv.State())
	}
	if srv.Address() != "" || srv.Port() != 0 {
		t.Error("Address/Port should be empty before Start")
	}

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if srv.State() != StateRunning {
		t.Errorf("State() = %s, want running", srv.State())
	}
	if srv.Port() == 0 || !strings.HasPrefix(srv.Address(), "127.0.0.1:") {
		t.Errorf("Address() = %q, Port() = %d", srv.Address(), srv.Port())
	}

	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	if err := srv.Stop(); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
	if srv.State() != StateStopped || !srv.State().IsTerminal() {
		t.Errorf("State() = %s, want stopped", srv.State())
	}
	if err := srv.Stop(); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
	if err := srv.Wait(); err != nil {
		t.Errorf("Wait() error: %v", err)
	}
	if _, ok := <-srv.Err(); ok {
		t.Error("Err() channel should be closed after Stop")
	}
}

func TestServer_StopWithoutStart(t *testing.T) {
	t.Parallel()

	srv := New(Config{}, NewDevice(DefaultResponses(), nil))
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if srv.State() != StateStopped {
		t.Errorf("State() = %s, want stopped", srv.State())
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Error("Start() after Stop() should fail")
	}
}

func TestServer_StartWithCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := New(Config{}, NewDevice(DefaultResponses(), nil))
	err := srv.Start(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Start() error = %v, want context.Canceled", err)
	}
	if srv.State() != StateFailed {
		t.Errorf("State() = %s, want failed", srv.State())
	}
	if !errors.Is(srv.Wait(), context.Canceled) {
		t.Errorf("Wait() = %v, want the start failure", srv.Wait())
	}
}

func TestServer_PortInUse(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(testutil.DeferClose(t, l))

	port := l.Addr().(*net.TCPAddr).Port
	srv := New(Config{Port: port}, NewDevice(DefaultResponses(), nil))
	if err := srv.Start(context.Background()); err == nil {
		_ = srv.Stop()
		t.Fatal("Start() on a busy port should fail")
	}
	if srv.State() != StateFailed {
		t.Errorf("State() = %s, want failed", srv.State())
	}
}

func TestServer_Authentication(t *testing.T) {
	t.Parallel()

	srv, _ := startServer(t, Config{})

	if _, err := dial(t, srv.Address(), testUser, "wrong"); err == nil {
		t.Error("dial with wrong password succeeded")
	}
	if _, err := dial(t, srv.Address(), "intruder", testPassword); err == nil {
		t.Error("dial with wrong user succeeded")
	}

	client, err := dial(t, srv.Address(), testUser, testPassword)
	if err != nil {
		t.Fatalf("dial with valid credentials: %v", err)
	}
	t.Cleanup(testutil.DeferClose(t, client))
}

func TestServer_Exec(t *testing.T) {
	t.Parallel()

	srv, _ := startServer(t, Config{})
	client, err := dial(t, srv.Address(), testUser, testPassword)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(testutil.DeferClose(t, client))

	out, err := execOn(t, client, "show version")
	if err != nil {
		t.Fatalf("show version: %v", err)
	}
	if !strings.HasPrefix(out, "Dummy OS Software") {
		t.Errorf("show version = %q", out)
	}

	out, err = execOn(t, client, "show nonsense")
	var exitErr *gossh.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitStatus() != 1 {
		t.Fatalf("show nonsense error = %v, want exit status 1", err)
	}
	if !strings.Contains(out, InvalidInput) {
		t.Errorf("show nonsense output = %q", out)
	}

	if srv.Sessions() != 2 {
		t.Errorf("Sessions() = %d, want 2", srv.Sessions())
	}
}

func TestServer_ConfigModeSpansSessions(t *testing.T) {
	t.Parallel()

	srv, device := startServer(t, Config{})
	client, err := dial(t, srv.Address(), testUser, testPassword)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(testutil.DeferClose(t, client))

	for _, line := range []string{"configure terminal", "hostname over-ssh", "end"} {
		if out, err := execOn(t, client, line); err != nil {
			t.Fatalf("%q: %v (%s)", line, err, out)
		}
	}
	if !strings.Contains(device.RunningConfig(), "hostname over-ssh") {
		t.Errorf("running config missing edit:\n%s", device.RunningConfig())
	}

	// A second connection starts outside configuration mode.
	other, err := dial(t, srv.Address(), testUser, testPassword)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(testutil.DeferClose(t, other))
	if _, err := execOn(t, other, "hostname sneaky"); err == nil {
		t.Error("config line outside config mode succeeded")
	}
}

func TestServer_HostKeyPersisted(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "emulator_ed25519")
	srv, _ := startServer(t, Config{HostKeyPath: keyPath})

	var seen gossh.PublicKey
	client, err := gossh.Dial("tcp", srv.Address(), &gossh.ClientConfig{
		User: testUser,
		Auth: []gossh.AuthMethod{gossh.Password(testPassword)},
		HostKeyCallback: func(_ string, _ net.Addr, key gossh.PublicKey) error {
			seen = key
			return nil
		},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(testutil.DeferClose(t, client))

	if _, err := os.Stat(keyPath); err != nil {
		t.Fatalf("host key not written: %v", err)
	}
	if seen == nil {
		t.Fatal("host key callback not invoked")
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	for state, want := range map[State]string{
		StateCreated:  "created",
		StateStarting: "starting",
		StateRunning:  "running",
		StateStopping: "stopping",
		StateStopped:  "stopped",
		StateFailed:   "failed",
		State(42):     "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"netfacts-cli/internal/cliconf"
	"netfacts-cli/internal/config"
	"netfacts-cli/internal/facts"
)

type (
	// Options configures a Client.
	Options struct {
		// Logger receives connection and command logs. Nil discards them.
		Logger *log.Logger
	}

	// Client runs commands on one device over a single SSH connection.
	// The connection is opened on first use; sessions are serialized.
	Client struct {
		cfg      config.DeviceConfig
		sshCfg   *ssh.ClientConfig
		logger   *log.Logger
		warnings []string

		mu     sync.Mutex
		conn   *ssh.Client
		closed bool
	}
)

var (
	_ facts.Executor = (*Client)(nil)
	_ cliconf.Conn   = (*Client)(nil)
)

// New validates cfg and prepares a Client. No connection is made yet.
func New(cfg config.DeviceConfig, opts Options) (*Client, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("device host is not set")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Client{
		cfg:    cfg,
		logger: logger.WithPrefix("transport"),
	}

	sshCfg, err := c.clientConfig()
	if err != nil {
		return nil, err
	}
	c.sshCfg = sshCfg
	return c, nil
}

// Warnings lists non-fatal problems with the connection settings, such as
// disabled host key checking.
func (c *Client) Warnings() []string {
	return slices.Clone(c.warnings)
}

// Address returns the host:port being dialed.
func (c *Client) Address() string {
	return c.cfg.Address()
}

// Run executes each command in its own session and returns the outputs in
// order. A command that exits non-zero yields its combined stdout and stderr
// as output unless opts.CheckError is set, in which case Run stops with a
// *CommandError. Connection failures always abort.
func (c *Client) Run(ctx context.Context, commands []string, opts facts.RunOptions) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	outputs := make([]string, 0, len(commands))
	for _, command := range commands {
		out, err := c.exec(ctx, conn, command)
		if err == nil {
			outputs = append(outputs, out)
			continue
		}

		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %q: %w", command, err)
		}
		if opts.CheckError {
			return nil, &CommandError{Command: command, ExitStatus: exitErr.ExitStatus(), Output: out}
		}
		c.logger.Debug("command exited non-zero", "command", command, "status", exitErr.ExitStatus())
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// Send runs a single command and fails if it exits non-zero.
func (c *Client) Send(ctx context.Context, command string) (string, error) {
	outputs, err := c.Run(ctx, []string{command}, facts.RunOptions{CheckError: true})
	if err != nil {
		return "", err
	}
	return outputs[0], nil
}

// Close closes the connection. The Client cannot be reused.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// connect returns the open connection, dialing it first if needed.
// The caller must hold c.mu.
func (c *Client) connect(ctx context.Context) (*ssh.Client, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.conn != nil {
		return c.conn, nil
	}

	addr := c.cfg.Address()
	dialer := net.Dialer{Timeout: c.cfg.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDial, addr, err)
	}

	if c.cfg.Timeout > 0 {
		_ = netConn.SetDeadline(time.Now().Add(c.cfg.Timeout))
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, c.sshCfg)
	if err != nil {
		_ = netConn.Close()
		return nil, classifyHandshakeError(addr, err)
	}
	_ = netConn.SetDeadline(time.Time{})

	c.conn = ssh.NewClient(sshConn, chans, reqs)
	c.logger.Debug("connected", "address", addr, "server", string(sshConn.ServerVersion()))
	return c.conn, nil
}

// exec runs one command in a fresh session and returns its combined output.
// A non-zero exit is reported as *ssh.ExitError alongside the output.
func (c *Client) exec(ctx context.Context, conn *ssh.Client, command string) (string, error) {
	sess, err := conn.NewSession()
	if err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	defer func() { _ = sess.Close() }()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := sess.CombinedOutput(command)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		_ = sess.Close()
		<-done
		return "", fmt.Errorf("command canceled: %w", ctx.Err())
	case r := <-done:
		return string(r.out), r.err
	}
}

func (c *Client) clientConfig() (*ssh.ClientConfig, error) {
	auth, err := c.authMethods()
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            c.cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.cfg.Timeout,
	}, nil
}

func (c *Client) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if c.cfg.PrivateKeyPath != "" {
		pem, err := os.ReadFile(c.cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse private key %s: %w", c.cfg.PrivateKeyPath, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if c.cfg.Password != "" {
		password := c.cfg.Password
		methods = append(methods,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	if len(methods) == 0 {
		return nil, errors.New("no password or private key configured")
	}
	return methods, nil
}

func (c *Client) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.cfg.InsecureIgnoreHostKey {
		c.warnings = append(c.warnings, fmt.Sprintf("host key checking is disabled for %s", c.cfg.Address()))
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicit user opt-out
	}

	path := c.cfg.KnownHostsPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrHostKey, path, err)
	}
	return callback, nil
}

func classifyHandshakeError(addr string, err error) error {
	var keyErr *knownhosts.KeyError
	if errors.As(err, &keyErr) || strings.Contains(err.Error(), "knownhosts:") {
		return fmt.Errorf("%w for %s: %w", ErrHostKey, addr, err)
	}
	if strings.Contains(err.Error(), "unable to authenticate") {
		return fmt.Errorf("%w for %s: %w", ErrAuth, addr, err)
	}
	return fmt.Errorf("ssh handshake with %s: %w", addr, err)
}

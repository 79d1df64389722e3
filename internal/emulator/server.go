// SPDX-License-Identifier: MPL-2.0

package emulator

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

// terminalKey stores the per-connection *Terminal in the ssh.Context.
type terminalKey struct{}

type (
	// Config holds immutable configuration for the emulator server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1)
		Host string
		// Port is the port to listen on (0 = auto-select)
		Port int
		// Username and Password are the only accepted credentials.
		Username string
		Password string
		// HostKeyPath stores the server host key, generated on first start.
		// Empty uses an ephemeral key.
		HostKeyPath string
		// ShutdownTimeout is the timeout for graceful shutdown (default: 5s)
		ShutdownTimeout time.Duration
		// StartupTimeout is the max time to wait for the server to be ready (default: 5s)
		StartupTimeout time.Duration
		// Logger receives server logs. Nil discards them.
		Logger *log.Logger
	}

	// Server exposes a Device over SSH. A Server is single-use: once stopped
	// or failed, create a new one.
	Server struct {
		cfg    Config
		device *Device
		logger *log.Logger

		state atomic.Int32

		mu       sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string
		lastErr  error

		wg        sync.WaitGroup
		startedCh chan struct{}
		errCh     chan error

		sessions atomic.Int64
	}
)

// New creates a server for device. Call Start to begin accepting connections.
func New(cfg Config, device *Device) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{
		cfg:       cfg,
		device:    device,
		logger:    logger.WithPrefix("emulator"),
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
	}
	s.state.Store(int32(StateCreated))
	return s
}

// Start binds the listener and blocks until the server accepts connections,
// fails, or ctx is done. After Start returns nil, use Err to monitor for
// runtime errors.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		s.fail(fmt.Errorf("context canceled before start: %w", ctx.Err()))
		return s.LastError()
	default:
	}

	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", s.State())
	}

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.fail(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.LastError()
	}

	opts := []ssh.Option{
		wish.WithAddress(addr),
		wish.WithPasswordAuth(s.passwordHandler),
		wish.WithMiddleware(s.commandMiddleware()),
	}
	if s.cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(s.cfg.HostKeyPath))
	}
	srv, err := wish.NewServer(opts...)
	if err != nil {
		_ = listener.Close()
		s.fail(fmt.Errorf("failed to create SSH server: %w", err))
		return s.LastError()
	}

	s.mu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	s.wg.Add(1)
	go s.serve(srv, listener)

	select {
	case <-s.startedCh:
		s.logger.Info("emulator listening", "address", s.Address(), "user", s.cfg.Username)
		return nil
	case err := <-s.errCh:
		s.fail(err)
		return err
	case <-startupCtx.Done():
		s.fail(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.LastError()
	}
}

// Stop shuts the server down gracefully. Safe to call multiple times.
func (s *Server) Stop() error {
	for {
		current := s.State()
		switch current {
		case StateStopped, StateFailed:
			return nil
		case StateCreated:
			if s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return nil
			}
		case StateStopping:
			s.wg.Wait()
			return nil
		case StateStarting, StateRunning:
			if s.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				return s.shutdown()
			}
		default:
			return fmt.Errorf("unknown server state: %d", current)
		}
	}
}

// State returns the current server state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Err returns a channel that receives fatal serve errors. It is closed
// when the server stops.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// LastError returns the error that moved the server to StateFailed.
func (s *Server) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Address returns the bound host:port, or "" before Start.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	_, portStr, err := net.SplitHostPort(s.Address())
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

// Sessions returns the number of exec sessions served so far.
func (s *Server) Sessions() int64 {
	return s.sessions.Load()
}

// Wait blocks until the server stops and returns the failure, if any.
func (s *Server) Wait() error {
	s.wg.Wait()
	if s.State() == StateFailed {
		return s.LastError()
	}
	return nil
}

func (s *Server) serve(srv *ssh.Server, listener net.Listener) {
	defer s.wg.Done()

	if s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(s.startedCh)
	}

	err := srv.Serve(listener)
	if err == nil || errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return
	}
	select {
	case s.errCh <- fmt.Errorf("serve error: %w", err):
	default:
		s.logger.Error("serve error (channel full)", "err", err)
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	s.mu.Lock()
	if s.srv != nil {
		if err := s.srv.Shutdown(ctx); err != nil && !isClosedConnError(err) {
			s.logger.Error("shutdown error", "err", err)
			shutdownErr = err
		}
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.state.Store(int32(StateStopped))
	close(s.errCh)
	s.logger.Info("emulator stopped", "sessions", s.Sessions())
	return shutdownErr
}

func (s *Server) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.state.Store(int32(StateFailed))

	select {
	case s.errCh <- err:
	default:
	}
}

func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(ctx.User()), []byte(s.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1
	if !userOK || !passOK {
		s.logger.Warn("authentication rejected", "user", ctx.User(), "remote", ctx.RemoteAddr().String())
		return false
	}
	return true
}

func (s *Server) commandMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			line := sess.RawCommand()
			if line == "" {
				_, _ = fmt.Fprintln(sess.Stderr(), "% Interactive sessions are not supported; pass a command")
				_ = sess.Exit(1)
				return
			}

			s.sessions.Add(1)
			code := s.device.Exec(s.terminal(sess.Context()), line, sess, sess.Stderr())
			s.logger.Debug("exec", "user", sess.User(), "command", line, "status", code)
			_ = sess.Exit(code)
		}
	}
}

// terminal returns the CLI state of the connection behind ctx.
func (s *Server) terminal(ctx ssh.Context) *Terminal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if term, ok := ctx.Value(terminalKey{}).(*Terminal); ok {
		return term
	}
	term := &Terminal{}
	ctx.SetValue(terminalKey{}, term)
	return term
}

// isClosedConnError reports a "use of closed network connection" error.
func isClosedConnError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed) || opErr.Err.Error() == "use of closed network connection"
	}
	return errors.Is(err, net.ErrClosed)
}

// SPDX-License-Identifier: MPL-2.0

package emulator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"netfacts-cli/internal/watch"
)

// WatchResponses reloads path into device whenever the file changes, until
// ctx is done. A file that fails to parse is logged and the previous
// responses stay in effect.
func WatchResponses(ctx context.Context, path string, device *Device, debounce time.Duration, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("responses")

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve responses file: %w", err)
	}

	w, err := watch.New(watch.Config{
		Dir:      filepath.Dir(abs),
		Patterns: []string{globEscape(filepath.Base(abs))},
		Debounce: debounce,
		Logger:   logger,
		OnChange: func(context.Context, []string) error {
			r, err := LoadResponses(abs)
			if err != nil {
				return err
			}
			device.SetResponses(r)
			logger.Info("responses reloaded", "file", abs, "commands", len(r.Commands))
			return nil
		},
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// globEscape quotes glob metacharacters so a file name matches only itself.
func globEscape(name string) string {
	var out []rune
	for _, r := range name {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectindex/internal/logging"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// defaultSettle is how long a burst of file events must be quiet before
// the change is reported. Editors often write a file in several steps.
const defaultSettle = 250 * time.Millisecond

// FallbackWatcher reports changes to the local fallback document.
//
// It watches the containing directory rather than the file, so replacing the
// file by rename (as most editors and deploy tools do) is still seen.
type FallbackWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *logging.Logger
	settle  time.Duration
	stop    chan struct{}
}

// NewFallbackWatcher creates a watcher for the document at path.
func NewFallbackWatcher(path string, logger *logging.Logger) (*FallbackWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving fallback path: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &FallbackWatcher{
		path:    abs,
		watcher: watcher,
		logger:  logger.Named("fallback-watch"),
		settle:  defaultSettle,
		stop:    make(chan struct{}),
	}, nil
}

// Start calls onChange after each settled change to the file, until ctx is
// done or Stop is called. onChange runs on the watcher goroutine.
func (w *FallbackWatcher) Start(ctx context.Context, onChange func(ctx context.Context)) {
	go w.run(ctx, onChange)
}

// Stop stops the watcher and releases its resources.
func (w *FallbackWatcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

func (w *FallbackWatcher) run(ctx context.Context, onChange func(ctx context.Context)) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				timer.Reset(w.settle)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.logger.Info(ctx, "fallback document changed", zap.String("path", w.path))
			onChange(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "fallback watcher error", zap.Error(err))
		}
	}
}

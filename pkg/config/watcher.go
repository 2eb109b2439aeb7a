package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/ticktree/pkg/profiler"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reapplies a settings file to a shared profiler whenever the file
// changes. A file that fails to load or validate is logged and skipped; the
// profiler keeps its previous settings.
type Watcher struct {
	path     string
	shared   *profiler.Shared
	logger   *logrus.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher for path. A nil logger logs warnings to stderr.
func NewWatcher(path string, shared *profiler.Shared, logger *logrus.Logger) *Watcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Watcher{
		path:     filepath.Clean(path),
		shared:   shared,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// Reload loads the file and applies it now.
func (w *Watcher) Reload() error {
	conf, err := Load(w.path)
	if err != nil {
		return err
	}

	var applyErr error
	w.shared.ChangeSettings(func(s *profiler.Settings) {
		applyErr = conf.Apply(s)
	})
	if applyErr != nil {
		return applyErr
	}

	if level, ok, _ := conf.Level(); ok {
		w.logger.SetLevel(level)
	}
	w.logger.WithField("path", w.path).Debug("Settings reloaded")
	return nil
}

// Start applies the file once and then watches it until ctx is done or
// Close is called. The initial load must succeed.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.Reload(); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create file watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("cannot watch %s: %w", w.path, err)
	}

	w.watcher = fw
	w.done = make(chan struct{})
	go w.watchLoop(ctx)
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.Reload(); err != nil {
				w.logger.WithError(err).WithField("path", w.path).Warn("Settings reload failed, keeping previous settings")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("File watcher error")
		}
	}
}

// Close stops watching and waits for the watch loop to exit.
func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	return err
}

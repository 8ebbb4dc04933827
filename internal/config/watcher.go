package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/actingweb/actingweb-sub001/internal/event"
	"github.com/actingweb/actingweb-sub001/internal/logging"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// DefaultDebounce is the quiet period before a change triggers a reload.
const DefaultDebounce = 150 * time.Millisecond

// ReloadFunc receives a freshly loaded configuration, or the error that
// prevented loading it.
type ReloadFunc func(cfg *types.Config, err error)

// Watcher reloads the configuration when one of its files changes.
type Watcher struct {
	watcher   *fsnotify.Watcher
	fs        afero.Fs
	directory string
	files     map[string]bool
	onReload  ReloadFunc
	bus       *event.Bus
	debounce  time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherBus publishes config.reloaded events on bus.
func WithWatcherBus(bus *event.Bus) WatcherOption {
	return func(w *Watcher) { w.bus = bus }
}

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher watches the config candidates of directory. Directories that
// do not exist are skipped.
func NewWatcher(directory string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:   fw,
		fs:        afero.NewOsFs(),
		directory: directory,
		files:     make(map[string]bool),
		onReload:  onReload,
		debounce:  DefaultDebounce,
		log:       logging.Component("config"),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	// Watch the directories; editors often replace files instead of
	// writing them in place.
	dirs := make(map[string]bool)
	for _, path := range Candidates(directory) {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
		w.log.Debug().Str("dir", dir).Msg("watching config directory")
	}
	return w, nil
}

// Start begins watching.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			w.log.Debug().Str("file", abs).Str("op", ev.Op.String()).Msg("config changed")
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.Reload)
}

// Reload loads the configuration now and hands it to the reload function.
func (w *Watcher) Reload() {
	cfg, err := LoadFS(w.fs, w.directory)

	data := event.ConfigReloadedData{Path: w.directory}
	if err != nil {
		data.Error = err.Error()
		w.log.Warn().Err(err).Msg("config reload failed")
	} else {
		if cfg.Permission != nil {
			data.Rules = len(cfg.Permission.Rules)
		}
		w.log.Info().Int("rules", data.Rules).Msg("config reloaded")
	}

	if w.onReload != nil {
		w.onReload(cfg, err)
	}
	if w.bus != nil {
		w.bus.Publish(event.Event{Type: event.ConfigReloaded, Data: data})
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}
	return w.watcher.Close()
}

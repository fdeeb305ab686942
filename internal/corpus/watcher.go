package corpus

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long the watcher waits after the last event before
// reloading; editors and copy tools emit several events per save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads one corpus file whenever it is written, created or renamed
// into place. The parent directory is watched so atomic replace-by-rename
// is seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context, path string) error
	log      zerolog.Logger

	fw     *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher prepares a watcher for path. onChange runs on the watcher
// goroutine, never concurrently with itself.
func NewWatcher(path string, debounce time.Duration, log zerolog.Logger, onChange func(ctx context.Context, path string) error) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("corpus: nil change handler")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		fw:       fw,
	}, nil
}

// Start begins watching. It returns once the watch is registered.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run(ctx)

	w.log.Info().Str("path", w.path).Dur("debounce", w.debounce).Msg("corpus watcher started")
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Str("path", w.path).Msg("corpus watcher error")

		case <-timer.C:
			pending = false
			start := time.Now()
			if err := w.onChange(ctx, w.path); err != nil {
				w.log.Warn().Err(err).Str("path", w.path).Msg("corpus reload failed")
				continue
			}
			w.log.Info().Str("path", w.path).Dur("took", time.Since(start)).Msg("corpus reloaded")
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

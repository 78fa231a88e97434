// Package watch treats writes to a file as edits of the field: each write
// restarts the quiet period and the file's text is submitted once it
// elapses.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/urlpad/internal/debounce"
	"github.com/zjrosen/urlpad/internal/log"
	"github.com/zjrosen/urlpad/internal/submit"
)

// ErrNoPath is returned by Run when Config.Path is empty.
var ErrNoPath = errors.New("watch: no file given")

// Report is one finished submission with its line delta against the text
// submitted before it.
type Report struct {
	submit.Result
	Added   int
	Removed int
}

// Reporter receives every finished submission. It may be called from
// several goroutines at once.
type Reporter func(Report)

// Config configures a Watcher.
type Config struct {
	Path      string
	Delay     time.Duration
	Submitter *submit.Submitter
	Report    Reporter
	// SubmitOnStart submits the file's current text once before any write.
	SubmitOnStart bool
	Clock         debounce.Clock
}

// Watcher feeds file contents through a debounce.Debouncer into a Submitter.
type Watcher struct {
	path      string
	submitter *submit.Submitter
	report    Reporter
	onStart   bool
	debouncer *debounce.Debouncer
	ctx       context.Context

	mu       sync.Mutex
	previous string
}

// New creates a Watcher. Nothing is watched until Run.
func New(cfg Config) *Watcher {
	path := cfg.Path
	if path != "" {
		path = filepath.Clean(path)
	}

	w := &Watcher{
		path:      path,
		submitter: cfg.Submitter,
		report:    cfg.Report,
		onStart:   cfg.SubmitOnStart,
		ctx:       context.Background(),
	}
	if w.report == nil {
		w.report = func(Report) {}
	}

	var opts []debounce.Option
	if cfg.Clock != nil {
		opts = append(opts, debounce.WithClock(cfg.Clock))
	}
	w.debouncer = debounce.New(cfg.Delay, w.submit, opts...)
	return w
}

func (w *Watcher) submit(text string) {
	w.mu.Lock()
	added, removed := LineDelta(w.previous, text)
	w.previous = text
	w.mu.Unlock()

	log.Debug(log.CatDebounce, "quiet period elapsed", "file", w.path, "added", added, "removed", removed)
	res := w.submitter.Submit(w.ctx, text)
	w.report(Report{Result: res, Added: added, Removed: removed})
}

// Run watches until ctx is done. The parent directory is watched rather than
// the file so editors that save by rename keep being followed.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		return ErrNoPath
	}
	w.ctx = ctx

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	log.Info(log.CatWatch, "watching", "file", w.path)

	defer w.debouncer.Stop()

	if w.onStart {
		w.load()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info(log.CatWatch, "stopped", "file", w.path)
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.ErrorErr(log.CatWatch, "watcher error", err, "file", w.path)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	log.Debug(log.CatWatch, "file changed", "file", w.path, "op", event.Op.String())
	w.load()
}

// load reads the file and arms the debouncer with its text.
func (w *Watcher) load() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		log.Warn(log.CatWatch, "reading file", "file", w.path, "error", err)
		return
	}
	w.debouncer.Trigger(string(data))
}

// Pending reports whether a submission is waiting for the quiet period.
func (w *Watcher) Pending() bool {
	return w.debouncer.Pending()
}

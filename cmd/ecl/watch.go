package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how quiet a file must stay before it is checked; editors
// often truncate and then write a file on save.
const debounce = 100 * time.Millisecond

// watcher re-checks expression files whenever they are written.
type watcher struct {
	watcher *fsnotify.Watcher
	files   map[string]string // absolute path -> path as given
	onWrite func(path string)
	stdout  io.Writer
	stderr  io.Writer

	ready chan string   // paths whose timer fired, drained by Run
	done  chan struct{} // closed when Run returns

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// newWatcher watches the directories holding files. Watching the directory
// rather than the file keeps working when an editor replaces the file on
// save.
func newWatcher(files []string, onWrite func(string), stdout, stderr io.Writer) (*watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		watcher: fsWatcher,
		files:   make(map[string]string, len(files)),
		onWrite: onWrite,
		stdout:  stdout,
		stderr:  stderr,
		ready:   make(chan string),
		done:    make(chan struct{}),
		timers:  make(map[string]*time.Timer),
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
		w.files[abs] = f
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run blocks, handling events until ctx is cancelled. onWrite is only
// called from Run's goroutine.
func (w *watcher) Run(ctx context.Context) error {
	defer w.stopTimers()
	defer close(w.done)

	w.logInfo("watching %d file(s), press Ctrl-C to stop", len(w.files))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if path, tracked := w.track(event.Name); tracked {
				w.schedule(path)
			}

		case path := <-w.ready:
			w.logInfo("changed: %s", path)
			w.onWrite(path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logError("watcher error: %v", err)
		}
	}
}

// schedule (re)starts the quiet-period timer for path, so a burst of
// writes is checked once, after the last one.
func (w *watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(debounce)
		return
	}
	w.timers[path] = time.AfterFunc(debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// track maps an event path back to the name the file was given as.
func (w *watcher) track(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	path, ok := w.files[abs]
	return path, ok
}

// Close stops the watcher
func (w *watcher) Close() error {
	return w.watcher.Close()
}

func (w *watcher) logInfo(format string, args ...any) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *watcher) logError(format string, args ...any) {
	fmt.Fprintf(w.stderr, "[WATCH] ERROR: "+format+"\n", args...)
}

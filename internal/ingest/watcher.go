package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FileKind classifies a dropped file by its name.
type FileKind string

const (
	KindFacts     FileKind = "facts"
	KindGaps      FileKind = "gaps"
	KindInventory FileKind = "inventory"
)

// FileEvent is one newly dropped or rewritten extraction file.
type FileEvent struct {
	Path string
	Kind FileKind
}

// Watcher monitors a drop directory for extraction output. The
// extraction collaborator writes facts and gaps as *.jsonl and the
// inventory summary as *.json; anything else is ignored.
type Watcher struct {
	watcher *fsnotify.Watcher
}

// NewWatcher creates a drop-directory watcher.
func NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher: w}, nil
}

// Watch starts monitoring the directory and emits an event per
// recognized file. The channel closes when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				kind, ok := classify(event.Name)
				if !ok {
					continue
				}
				select {
				case events <- FileEvent{Path: event.Name, Kind: kind}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("drop directory watch error", "dir", dir, "error", err)
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// classify maps a dropped filename to its ingest kind.
func classify(path string) (FileKind, bool) {
	base := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	switch {
	case ext == ".jsonl" && strings.Contains(name, "fact"):
		return KindFacts, true
	case ext == ".jsonl" && strings.Contains(name, "gap"):
		return KindGaps, true
	case ext == ".json" && strings.Contains(name, "inventory"):
		return KindInventory, true
	}
	return "", false
}

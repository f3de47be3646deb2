package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/thiagokokada/tigo/internal/debounce"
)

const DefaultNotifyDelay = 350 * time.Millisecond

// Notifier turns filesystem activity in the git directory into a coalesced
// signal. Each signal should be answered with a Filesystem probe.
type Notifier struct {
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
	changes  chan struct{}
	done     chan struct{}
	once     sync.Once
	log      zerolog.Logger
}

func NewNotifier(gitDir string, delay time.Duration, log zerolog.Logger) (*Notifier, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	paths := WatchPaths(gitDir)
	if len(paths) == 0 {
		return nil, errors.Join(fmt.Errorf("watch %s: not a directory", gitDir), watcher.Close())
	}
	for _, path := range paths {
		log.Debug().Str("path", path).Msg("adding path to FS watcher")
		if err := watcher.Add(path); err != nil {
			return nil, fmt.Errorf("watch %s: %w", path, errors.Join(err, watcher.Close()))
		}
	}
	n := &Notifier{
		watcher: watcher,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		log:     log,
	}
	n.debounce = debounce.New(delay, n.signal)
	go n.loop()
	return n, nil
}

// Changes receives one value per burst of changes.
func (n *Notifier) Changes() <-chan struct{} {
	return n.changes
}

func (n *Notifier) Close() error {
	var err error
	n.once.Do(func() {
		close(n.done)
		n.debounce.Stop()
		err = n.watcher.Close()
	})
	return err
}

func (n *Notifier) signal() {
	select {
	case n.changes <- struct{}{}:
	default:
	}
}

func (n *Notifier) loop() {
	for {
		select {
		case <-n.done:
			return
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			n.log.Trace().Stringer("op", ev.Op).Str("path", ev.Name).Msg("fsnotify event")
			n.debounce.Trigger()
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// WatchPaths lists the existing directories under gitDir whose entries
// change when HEAD, refs, reflogs or the index do. fsnotify is not recursive.
func WatchPaths(gitDir string) []string {
	if gitDir == "" {
		return nil
	}
	var paths []string
	for _, rel := range []string{".", "refs", "refs/heads", "refs/tags", "logs", "logs/refs"} {
		path := filepath.Join(gitDir, rel)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			paths = append(paths, path)
		}
	}
	return paths
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}

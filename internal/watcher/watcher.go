package watcher

// Long-lived processes remember resolution results and directory listings
// between requests. This watches the root directory tree and tells them to
// forget everything whenever something below it changes.

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ngbazel/resolvebazel/internal/fs"
	"github.com/ngbazel/resolvebazel/internal/logger"
	"github.com/pkg/errors"
	"gopkg.in/tomb.v2"
)

type Watcher struct {
	log    logger.Log
	notify *fsnotify.Watcher
	t      tomb.Tomb

	// Directory listings used to find subdirectories. This is never cached
	// since the whole point is to see the latest contents.
	walkFS fs.FS

	callbacksMutex sync.Mutex
	callbacks      []func()
}

// New starts watching "root" and every directory below it. Each callback is
// called after any file or directory is created, removed, renamed or written.
func New(log logger.Log, root string, callbacks ...func()) (*Watcher, error) {
	walkFS, err := fs.RealFS(fs.RealFSOptions{AbsWorkingDir: root, DoNotCache: true})
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}

	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}

	w := &Watcher{
		log:       log,
		notify:    notify,
		walkFS:    walkFS,
		callbacks: append([]func(){}, callbacks...),
	}

	if err := w.addTree(walkFS.Cwd()); err != nil {
		notify.Close()
		return nil, err
	}

	w.t.Go(w.loop)
	return w, nil
}

func (w *Watcher) OnChange(callback func()) {
	w.callbacksMutex.Lock()
	defer w.callbacksMutex.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Close stops the event loop. No callbacks are called after it returns.
func (w *Watcher) Close() error {
	w.t.Kill(nil)
	if err := w.t.Wait(); err != nil {
		return err
	}
	return w.notify.Close()
}

func (w *Watcher) loop() error {
	for {
		select {
		case <-w.t.Dying():
			return nil

		case event, ok := <-w.notify.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.notify.Errors:
			if !ok {
				return nil
			}
			w.log.AddWarning(fmt.Sprintf("File watcher error: %s", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Permission changes don't affect what resolves to what
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
		return
	}

	// New directories must be watched before anyone hears about the change, or
	// files created in them right afterward would go unnoticed
	if event.Has(fsnotify.Create) {
		if _, err := w.walkFS.ReadDirectory(event.Name); err == nil {
			if err := w.addTree(event.Name); err != nil {
				w.log.AddWarning(err.Error())
			}
		}
	}

	w.callbacksMutex.Lock()
	callbacks := append([]func(){}, w.callbacks...)
	w.callbacksMutex.Unlock()

	for _, callback := range callbacks {
		callback()
	}
}

func (w *Watcher) addTree(dir string) error {
	if err := w.notify.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %v", dir)
	}

	// The directory may already be gone again, which is fine
	entries, err := w.walkFS.ReadDirectory(dir)
	if err != nil {
		return nil
	}

	for _, name := range entries.SortedKeys() {
		entry := entries.Get(name)

		// Don't follow symlinks since they can form cycles
		if entry.Kind(w.walkFS) != fs.DirEntry || entry.Symlink(w.walkFS) != "" {
			continue
		}
		if err := w.addTree(w.walkFS.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

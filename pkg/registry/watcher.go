package registry

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"agentgov/warden/pkg/skill/validator"
	"agentgov/warden/pkg/telemetry/logging"
)

// DefaultDebounce is how long the watcher waits after the last
// filesystem event before reloading. Editors and git checkouts touch
// many files in a burst; one reload at the end covers all of them.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the registry when skill documents under root change.
type Watcher struct {
	registry *Registry
	root     string
	debounce time.Duration
	logger   *logging.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher over root feeding reg. It does not
// start watching until Start is called.
func NewWatcher(reg *Registry, root string, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Nop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &RegistryError{Operation: "watch", Message: "creating filesystem watcher", Cause: err}
	}

	return &Watcher{
		registry: reg,
		root:     root,
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching and returns immediately. The watch loop exits
// when ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// Close stops the watcher and waits for the loop to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

// addRecursive registers root and every subdirectory. fsnotify watches
// are not recursive on any platform we support.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			// New directories must be added to the watch before
			// anything inside them produces events.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}
			w.logger.Debug("registry change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if _, err := w.registry.Reload(w.root); err != nil {
				w.logger.Error("registry reload failed", "error", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("filesystem watcher error", "error", err)
		}
	}
}

// relevant filters events down to skill documents and directory
// creation. Rendered files and editor temp files are ignored.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if base == validator.DocumentFileName {
		return true
	}
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	// Directory creation has no reliable marker in the event itself;
	// treat extensionless creates as candidate directories.
	return event.Op.Has(fsnotify.Create) && filepath.Ext(base) == ""
}

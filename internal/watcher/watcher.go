package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/tallyfy/denizen-assets/internal/entity"
)

const DefaultDebounce = 500 * time.Millisecond

// AssetProcessor is the part of the asset service the watcher drives.
type AssetProcessor interface {
	ProcessFile(ctx context.Context, name string) (*entity.AssetResult, error)
	Stage(ctx context.Context) error
	Ignores(name string) bool
}

// Watcher resizes files as they are created or rewritten in the source dir
type Watcher struct {
	svc      AssetProcessor
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	// OnProcessed is called after a file has been resized and staged.
	OnProcessed func(result *entity.AssetResult)
}

func NewWatcher(svc AssetProcessor, dir string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		svc:      svc,
		dir:      dir,
		debounce: debounce,
		watcher:  fsWatcher,
	}, nil
}

// Run blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.dir, err)
	}
	logrus.WithField("dir", w.dir).Info("Watching folder")

	// timers fire into ready so files are handled one at a time on this goroutine
	ready := make(chan string, 16)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, timer := range pending {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}

			name := filepath.Base(event.Name)
			if timer, exists := pending[name]; exists {
				timer.Stop()
			}
			pending[name] = time.AfterFunc(w.debounce, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})

		case name := <-ready:
			delete(pending, name)
			w.handle(ctx, name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logrus.Errorf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(event.Name)
	// editors and uploads write through dot-prefixed temp files
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !w.svc.Ignores(name)
}

func (w *Watcher) handle(ctx context.Context, name string) {
	log := logrus.WithField("asset", name)

	info, err := os.Stat(filepath.Join(w.dir, name))
	if err != nil || info.IsDir() {
		// removed again before the debounce fired, or a new subfolder
		return
	}

	result, err := w.svc.ProcessFile(ctx, name)
	if err != nil {
		log.Errorf("Failed to resize: %v", err)
		return
	}
	if err := w.svc.Stage(ctx); err != nil {
		log.Errorf("Failed to stage outputs: %v", err)
		return
	}

	if w.OnProcessed != nil {
		w.OnProcessed(result)
	}
}

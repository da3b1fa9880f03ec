package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the config file at path and invokes onChange whenever it is
// rewritten, enabling runtime adjustments such as log-level changes. It blocks
// until ctx is cancelled.
func Watch(ctx context.Context, path string, log *slog.Logger, onChange func()) error {
	if log == nil {
		log = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := watcher.Close(); cerr != nil {
			log.Error("failed to close config watcher", slog.Any("error", cerr))
		}
	}()

	// Watch the directory: editors and config maps replace the file rather
	// than writing it in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			log.Info("config file changed", slog.String("path", event.Name))
			if onChange != nil {
				onChange()
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("config watcher error", slog.Any("error", werr))
		}
	}
}

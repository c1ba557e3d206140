package static

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wippyai/libnss/errors"
)

// Watch reloads the document whenever it is written, created or renamed
// into place, until ctx is done. The directory is watched rather than the
// file so editors that replace the file atomically are seen.
//
// Watch returns once the watch is established; reloads run on a separate
// goroutine.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		return errors.NotInitialized(errors.PhaseLoad, "document path")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Unavailable(errors.PhaseLoad, "create watcher", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return errors.Unavailable(errors.PhaseLoad, "watch "+filepath.Dir(s.path), err)
	}

	go s.watch(ctx, w)
	return nil
}

func (s *Source) watch(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			err := s.Reload()
			if s.notify != nil {
				s.notify(err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", zap.String("path", s.path), zap.Error(err))
		}
	}
}

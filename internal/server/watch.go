package server

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vup-linux/vuru/pkg/errors"
)

// Watch rebuilds the index whenever the template tree changes, until
// ctx is cancelled. Events are debounced so one checkout update
// triggers one rebuild. A failed rebuild keeps the previous document
// serving.
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "start template watcher")
	}
	defer watcher.Close()

	if err := addRecursive(watcher, s.srcpkgs); err != nil {
		return err
	}
	s.logger.Info("watching template tree", "dir", s.srcpkgs, "debounce", s.debounce)

	debounce := time.NewTimer(s.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, ev.Name); err != nil {
						s.logger.Warn("watch new directory", "dir", ev.Name, "error", err)
					}
				}
			}
			debounce.Reset(s.debounce)

		case <-debounce.C:
			if err := s.Rebuild(ctx); err != nil {
				s.logger.Error("index rebuild failed", "error", err)
				continue
			}
			s.logger.Info("index rebuilt", "trigger", "template change")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("template watcher error", "error", err)
		}
	}
}

// addRecursive registers dir and every directory below it. Unreadable
// subdirectories are skipped rather than failing the whole watch.
func addRecursive(w *fsnotify.Watcher, dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(path)
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "watch %s", dir)
	}
	return nil
}

package source

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/podium/pkg/logger"
)

// Notify is called when the watched file may have changed.
type Notify func(ctx context.Context, path string)

// Watch reports changes to path until ctx is cancelled. The parent
// directory is watched so that atomic saves (write temp, rename over) are
// seen even though they replace the inode.
func Watch(ctx context.Context, path string, notify Notify) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	log := logger.Get().Named("watch")
	log.Info(ctx, "watching for changes", logger.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug(ctx, "change detected", logger.String("path", target), logger.String("op", event.Op.String()))
			notify(ctx, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(ctx, "watcher error", logger.Error(err))
		}
	}
}

// fileState is what Poll compares between ticks.
type fileState struct {
	exists  bool
	size    int64
	modTime time.Time
}

func (f fileState) same(o fileState) bool {
	return f.exists == o.exists && f.size == o.size && f.modTime.Equal(o.modTime)
}

func stat(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// Poll stats path every interval and reports when its size, modification
// time or existence changes. It is meant for filesystems where change
// notifications are unreliable, such as network mounts.
func Poll(ctx context.Context, path string, interval time.Duration, notify Notify) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Get().Named("poll").Info(ctx, "polling for changes",
		logger.String("path", path), logger.Duration("interval", interval))

	last := stat(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur := stat(path)
			if cur.same(last) {
				continue
			}
			last = cur
			notify(ctx, path)
		}
	}
}

package library

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long Watch waits for a burst of file events to end
// before reloading.
const DefaultSettle = 200 * time.Millisecond

// Watch reloads the library whenever a schema document of the directory is
// written, created, removed or renamed. It blocks until ctx is done. Events
// arriving within settle of each other trigger a single reload; onReload, when
// set, is called after every reload.
func (l *Library) Watch(ctx context.Context, settle time.Duration, onReload func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("library: watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(l.dir); err != nil {
		return fmt.Errorf("library: watch %s: %w", l.dir, err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !IsSchemaFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			l.logger.Infof("%s changed (%s)", event.Name, event.Op.String())
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(settle)
			}
			pending = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Warnf("watch %s: %v", l.dir, err)
		case <-pending:
			pending = nil
			err := l.Reload(ctx)
			if err != nil {
				l.logger.Warnf("reload %s: %v", l.dir, err)
			}
			if onReload != nil {
				onReload(err)
			}
		}
	}
}

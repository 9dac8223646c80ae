package spacetraveling

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 250 * time.Millisecond

// WatchContent invalidates every cached page whenever a Markdown file under
// the local content directory changes. A file name does not say which uid it
// holds, so the whole cache goes. It blocks until ctx is done.
func (a *App) WatchContent(ctx context.Context) error {
	if a.Config.ContentDir == "" {
		return fmt.Errorf("spacetraveling: watch: ContentDir is not set")
	}
	dir := filepath.Join(a.Config.ContentDir, a.Config.DocumentType)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("spacetraveling: watch: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("spacetraveling: watch %s: %w", dir, err)
	}
	a.Logger.Info("watching content", zap.String("dir", dir))

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".md" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			slugs := a.Cache.InvalidateAll(ctx)
			a.Logger.Info("content changed, pages invalidated", zap.Int("count", len(slugs)))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.Logger.Warn("watch error", zap.Error(err))
		}
	}
}

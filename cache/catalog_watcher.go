package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"supersonic/logger"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the catalog file must stay quiet before a
// change is reported.
const DefaultSettle = 2 * time.Second

// CatalogWatcher calls onChange once the catalog file has been quiet for the
// settle delay after a scanner rewrite. The parent directory is watched so
// that replace-by-rename is noticed too.
type CatalogWatcher struct {
	path     string
	settle   time.Duration
	onChange func(context.Context)
	watcher  *fsnotify.Watcher
	running  atomic.Bool
	done     chan struct{}
}

// NewCatalogWatcher 创建目录数据库文件监听器
func NewCatalogWatcher(path string, settle time.Duration, onChange func(context.Context)) (*CatalogWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听器失败: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("监听目录失败: %w", err)
	}
	return &CatalogWatcher{
		path:     abs,
		settle:   settle,
		onChange: onChange,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Run blocks until ctx is cancelled or Close is called.
func (w *CatalogWatcher) Run(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	defer close(w.done)

	tick := w.settle / 2
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	checkTicker := time.NewTicker(tick)
	defer checkTicker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				pending = time.Now()
			}

		case <-checkTicker.C:
			// 文件稳定后才触发，避免扫描器写入过程中反复清缓存
			if pending.IsZero() || time.Since(pending) < w.settle {
				continue
			}
			pending = time.Time{}
			logger.Info("目录数据库已更新", logger.String("path", w.path))
			w.onChange(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("文件监听错误", logger.ErrorField(err))
		}
	}
}

// SQLite journals (-wal, -journal) count as catalog writes.
func (w *CatalogWatcher) matches(name string) bool {
	base := filepath.Base(w.path)
	got := filepath.Base(name)
	if got == base {
		return true
	}
	for _, suffix := range []string{"-wal", "-journal"} {
		if got == base+suffix {
			return true
		}
	}
	return false
}

// Close stops the watcher and waits for Run to return.
func (w *CatalogWatcher) Close() error {
	err := w.watcher.Close()
	if w.running.Load() {
		<-w.done
	}
	return err
}

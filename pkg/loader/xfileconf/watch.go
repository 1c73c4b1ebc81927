package xfileconf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// WatchCallback 变更回调：paths 为本次内容确实发生变化的文件。
type WatchCallback func(paths []string)

// Watcher 配置文件监视器。监视候选文件所在目录，事件防抖后用内容
// 指纹过滤伪变更（touch、编辑器原子写入的中间态），只有内容确实
// 变化才触发回调。
type Watcher struct {
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc

	mu           sync.Mutex
	running      bool
	timer        *time.Timer
	fingerprints map[string]uint64 // path -> xxhash，缺失文件记 0
}

// WatchOption 定义监视器选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

func defaultWatchOptions() *watchOptions {
	return &watchOptions{debounce: 100 * time.Millisecond}
}

// WithDebounce 设置防抖时间：窗口内的多次事件只触发一次检查。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watch 创建监视器。paths 为要监视的文件（通常来自 Loader.Candidates），
// 文件可以暂不存在，出现后同样收到事件。
//
// 监视的是文件所在目录而非文件本身：编辑器保存时可能先删除再创建,
// 直接监视文件会丢失事件。
func Watch(paths []string, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	options := defaultWatchOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(options)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xfileconf: failed to create watcher: %w", err)
	}

	fingerprints := make(map[string]uint64, len(paths))
	dirs := make(map[string]struct{})
	for _, path := range paths {
		fingerprints[path] = fingerprint(path)
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			closeErr := fsWatcher.Close()
			return nil, errors.Join(
				fmt.Errorf("xfileconf: failed to watch directory %s: %w", dir, err),
				closeErr,
			)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:      fsWatcher,
		callback:     callback,
		debounce:     options.debounce,
		ctx:          ctx,
		cancel:       cancel,
		fingerprints: fingerprints,
	}, nil
}

// Start 启动监视。此方法会阻塞，通常在 goroutine 中调用。
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.run()
}

// StartAsync 异步启动监视，立即返回。
// 先设置 running 标志再启动 goroutine，避免与 Stop 竞态。
func (w *Watcher) StartAsync() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run()
}

// Stop 停止监视。重复调用安全。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	// 停掉防抖定时器，防止 Stop 后仍触发回调
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.cancel()
	w.running = false
	return w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// handleEvent 处理文件系统事件：只关心被跟踪文件的写入类事件，
// 防抖后统一做指纹比对。
func (w *Watcher) handleEvent(event fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, tracked := w.fingerprints[filepath.Clean(event.Name)]; !tracked {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		changed := w.refingerprint()
		if len(changed) > 0 && w.callback != nil {
			w.callback(changed)
		}
	})
}

// refingerprint 重算全部跟踪文件的指纹，返回内容变化的路径。
func (w *Watcher) refingerprint() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	for path, old := range w.fingerprints {
		current := fingerprint(path)
		if current != old {
			w.fingerprints[path] = current
			changed = append(changed, path)
		}
	}
	return changed
}

// fingerprint 计算文件内容指纹，缺失或不可读记 0。
func fingerprint(path string) uint64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

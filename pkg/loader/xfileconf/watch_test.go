package xfileconf

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// changeRecorder 线程安全地收集回调。
type changeRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *changeRecorder) record(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paths)
}

func (r *changeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *changeRecorder) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

// waitFor 轮询等待条件成立。
func waitFor(t *testing.T, cond func() bool, timeout time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

// ===== 监视 =====

func TestWatch_NoFiles(t *testing.T) {
	w, err := Watch(nil, func([]string) {})
	require.ErrorIs(t, err, ErrNoFiles)
	assert.Nil(t, w)
}

func TestWatch_DetectsContentChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "application.yaml", "version: 1\n")

	rec := &changeRecorder{}
	w, err := Watch([]string{path}, rec.record, WithDebounce(30*time.Millisecond))
	require.NoError(t, err)
	w.StartAsync()
	defer func() { _ = w.Stop() }()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "application.yaml", "version: 2\n")

	require.True(t, waitFor(t, func() bool { return rec.count() > 0 }, 2*time.Second))
	assert.Equal(t, []string{path}, rec.last())
}

// 内容不变的写入（touch 类伪事件）不触发回调。
func TestWatch_SameContentIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "application.yaml", "version: 1\n")

	rec := &changeRecorder{}
	w, err := Watch([]string{path}, rec.record, WithDebounce(30*time.Millisecond))
	require.NoError(t, err)
	w.StartAsync()
	defer func() { _ = w.Stop() }()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "application.yaml", "version: 1\n")

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, rec.count())
}

// 跟踪列表之外的文件不触发回调。
func TestWatch_UntrackedFileIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "application.yaml", "version: 1\n")

	rec := &changeRecorder{}
	w, err := Watch([]string{path}, rec.record, WithDebounce(30*time.Millisecond))
	require.NoError(t, err)
	w.StartAsync()
	defer func() { _ = w.Stop() }()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "other.yaml", "noise: true\n")

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, rec.count())
}

// 启动时不存在的文件出现后同样被捕获。
func TestWatch_FileAppears(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "application-prod.yaml")

	rec := &changeRecorder{}
	w, err := Watch([]string{path}, rec.record, WithDebounce(30*time.Millisecond))
	require.NoError(t, err)
	w.StartAsync()
	defer func() { _ = w.Stop() }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("profile: prod\n"), 0600))

	require.True(t, waitFor(t, func() bool { return rec.count() > 0 }, 2*time.Second))
	assert.Equal(t, []string{path}, rec.last())
}

func TestWatch_StopIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "application.yaml", "a: 1\n")

	w, err := Watch([]string{path}, func([]string) {})
	require.NoError(t, err)
	w.StartAsync()

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

// ===== 轮询 =====

func TestPoller_InvalidSchedule(t *testing.T) {
	p, err := NewPoller("not a schedule", func() {})
	require.ErrorIs(t, err, ErrInvalidSchedule)
	assert.Nil(t, p)
}

func TestPoller_Ticks(t *testing.T) {
	var mu sync.Mutex
	var ticks int
	p, err := NewPoller("@every 50ms", func() {
		mu.Lock()
		ticks++
		mu.Unlock()
	})
	require.NoError(t, err)

	p.Start()
	defer p.Stop()

	assert.True(t, waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 2
	}, 2*time.Second))
}

func TestPoller_StopIdempotent(t *testing.T) {
	p, err := NewPoller("@every 1h", func() {})
	require.NoError(t, err)
	p.Start()
	p.Stop()
	p.Stop()
}

package xfileconf

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// Poller 定时轮询触发器。适合网络文件系统、容器挂载卷等收不到
// inotify 事件的场景：按 cron 表达式周期性触发回调，由回调方决定
// 是否重载。
type Poller struct {
	cron  *cron.Cron
	entry cron.EntryID

	mu      sync.Mutex
	running bool
}

// NewPoller 创建轮询器。schedule 为 cron 表达式，支持 @every 简写
// （如 "@every 30s"）。
func NewPoller(schedule string, fn func()) (*Poller, error) {
	c := cron.New()
	entry, err := c.AddFunc(schedule, fn)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, schedule, err)
	}
	return &Poller{cron: c, entry: entry}, nil
}

// Start 启动轮询。重复调用安全。
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.cron.Start()
}

// Stop 停止轮询并等待在途回调完成。重复调用安全。
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	<-p.cron.Stop().Done()
}

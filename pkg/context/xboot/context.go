package xboot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/omeyang/confkit/pkg/property/xenv"
)

// BootstrapContextID 引导上下文的固定标识符。
const BootstrapContextID = "bootstrap"

// Event 定义上下文事件。Source 返回事件来源。
type Event interface {
	Source() any
}

// Listener 定义事件监听器。
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc 将函数适配为 Listener。
type ListenerFunc func(event Event)

// OnEvent 实现 Listener。
func (f ListenerFunc) OnEvent(event Event) { f(event) }

// Initializer 定义上下文初始化器：在上下文准备阶段对其加工
// （安装祖先链接、登记组件等）。
type Initializer interface {
	Initialize(ctx *Context) error
}

// Pipeline 定义配置加载管道：把外部配置源（文件、远端）加载进环境。
// 引导与刷新探测都复用同一条管道。
type Pipeline interface {
	Load(ctx context.Context, env *xenv.Environment) error
}

// PipelineFunc 将函数适配为 Pipeline。
type PipelineFunc func(ctx context.Context, env *xenv.Environment) error

// Load 实现 Pipeline。
func (f PipelineFunc) Load(ctx context.Context, env *xenv.Environment) error {
	return f(ctx, env)
}

// Chain 将多条管道串联为一条，按序执行，遇错即停。
func Chain(pipelines ...Pipeline) Pipeline {
	return PipelineFunc(func(ctx context.Context, env *xenv.Environment) error {
		for _, p := range pipelines {
			if p == nil {
				continue
			}
			if err := p.Load(ctx, env); err != nil {
				return err
			}
		}
		return nil
	})
}

// Context 配置上下文：一个环境加上标识符、祖先链接、事件监听器
// 与关闭语义。祖先链是单向无环的：SetAncestor 重复安装时替换引用
// 而非叠加链接。
type Context struct {
	id     string
	env    *xenv.Environment
	logger *slog.Logger

	mu           sync.RWMutex
	ancestor     *Context
	listeners    []Listener
	initializers []Initializer
	onClose      []func()

	closed atomic.Bool
}

// ContextOption 定义上下文构造选项。
type ContextOption func(*Context)

// WithID 指定上下文标识符。默认为随机 UUID。
func WithID(id string) ContextOption {
	return func(c *Context) {
		if id != "" {
			c.id = id
		}
	}
}

// WithLogger 指定日志记录器。默认为 slog.Default()。
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithListeners 指定初始事件监听器。
func WithListeners(listeners ...Listener) ContextOption {
	return func(c *Context) {
		c.listeners = append(c.listeners, listeners...)
	}
}

// NewContext 创建上下文。env 为 nil 时使用空环境。
func NewContext(env *xenv.Environment, opts ...ContextOption) *Context {
	if env == nil {
		env = xenv.New()
	}
	c := &Context{
		id:     uuid.NewString(),
		env:    env,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// ID 返回上下文标识符。
func (c *Context) ID() string { return c.id }

// Environment 返回上下文环境。
func (c *Context) Environment() *xenv.Environment { return c.env }

// Ancestor 返回祖先上下文；无祖先时返回 nil。
func (c *Context) Ancestor() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ancestor
}

// SetAncestor 安装/替换祖先链接。重复安装是幂等的：替换引用，
// 不会产生重复链接。
func (c *Context) SetAncestor(ancestor *Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ancestor = ancestor
}

// AddListener 注册事件监听器。
func (c *Context) AddListener(l Listener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Publish 同步分发事件给全部监听器，按注册顺序。
func (c *Context) Publish(event Event) {
	c.mu.RLock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.RUnlock()
	for _, l := range listeners {
		l.OnEvent(event)
	}
}

// RegisterInitializer 登记初始化器。引导管道加载出的初始化器会在
// Prepare 的 apply 阶段并入主 App。
func (c *Context) RegisterInitializer(init Initializer) {
	if init == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initializers = append(c.initializers, init)
}

// Initializers 返回已登记初始化器的快照副本。
func (c *Context) Initializers() []Initializer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Initializer(nil), c.initializers...)
}

// OnClose 注册关闭回调。Close 时按注册顺序执行。
func (c *Context) OnClose(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = append(c.onClose, fn)
}

// Closed 返回上下文是否已关闭。
func (c *Context) Closed() bool { return c.closed.Load() }

// Close 关闭上下文。幂等：重复关闭为空操作。只关闭自身，
// 不触及祖先（祖先链的整体关闭见 CloseChain）。
func (c *Context) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.RLock()
	hooks := append([]func(){}, c.onClose...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
	c.logger.Debug("context closed", slog.String("context", c.id))
	return nil
}

// CloseChain 关闭自身及整条祖先链。刷新探测的临时上下文链
// 必须整体释放，无论探测成败。
func (c *Context) CloseChain() {
	for ctx := c; ctx != nil; ctx = ctx.Ancestor() {
		_ = ctx.Close()
	}
}

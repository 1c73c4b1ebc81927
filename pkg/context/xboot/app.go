package xboot

import (
	"fmt"
	"sync"

	"github.com/omeyang/confkit/pkg/property/xenv"
	"github.com/omeyang/confkit/pkg/property/xsource"
)

// App 表示一个准备中的应用：承载初始化器与应用级监听器。
// 引导协议通过它发现既有祖先链接、安装新链接、并入引导初始化器。
type App struct {
	mu           sync.RWMutex
	initializers []Initializer
	listeners    []Listener
	bootstrapped bool
}

// AppOption 定义 App 构造选项。
type AppOption func(*App)

// WithInitializers 指定初始的初始化器列表。
func WithInitializers(initializers ...Initializer) AppOption {
	return func(a *App) {
		a.initializers = append(a.initializers, initializers...)
	}
}

// WithAppListeners 指定初始的应用级监听器。
func WithAppListeners(listeners ...Listener) AppOption {
	return func(a *App) {
		a.listeners = append(a.listeners, listeners...)
	}
}

// NewApp 创建 App。
func NewApp(opts ...AppOption) *App {
	a := &App{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// Initializers 返回初始化器的快照副本（保持声明顺序）。
func (a *App) Initializers() []Initializer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Initializer(nil), a.initializers...)
}

// AddInitializers 追加初始化器。
func (a *App) AddInitializers(initializers ...Initializer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initializers = append(a.initializers, initializers...)
}

// Listeners 返回应用级监听器的快照副本。
func (a *App) Listeners() []Listener {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Listener(nil), a.listeners...)
}

// AddListeners 追加应用级监听器。
func (a *App) AddListeners(listeners ...Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, listeners...)
}

// ApplyInitializers 按声明顺序对上下文执行全部初始化器，遇错即停。
// 已关闭的上下文拒绝初始化。
func (a *App) ApplyInitializers(ctx *Context) error {
	if ctx == nil {
		return ErrNilEnvironment
	}
	if ctx.Closed() {
		return fmt.Errorf("%w: %s", ErrContextClosed, ctx.ID())
	}
	for _, init := range a.Initializers() {
		if err := init.Initialize(ctx); err != nil {
			return err
		}
	}
	return nil
}

// NotifyFailure 向应用级监听器广播顶层初始化失败事件。
// 引导协议注册的关闭监听器借此释放部分启动的引导上下文。
func (a *App) NotifyFailure(err error) {
	ev := &AppFailedEvent{app: a, err: err}
	for _, l := range a.Listeners() {
		l.OnEvent(ev)
	}
}

func (a *App) markBootstrapped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bootstrapped {
		return false
	}
	a.bootstrapped = true
	return true
}

// AppFailedEvent 顶层初始化失败事件。
type AppFailedEvent struct {
	app *App
	err error
}

// Source 返回失败的 App。
func (e *AppFailedEvent) Source() any { return e.app }

// Err 返回失败原因。
func (e *AppFailedEvent) Err() error { return e.err }

// AncestorInitializer 祖先链接初始化器：执行时把持有的祖先上下文
// 安装到目标上下文链的根部。重复安装替换引用而非叠加。
type AncestorInitializer struct {
	mu       sync.RWMutex
	ancestor *Context
}

// NewAncestorInitializer 创建祖先链接初始化器。
func NewAncestorInitializer(ancestor *Context) *AncestorInitializer {
	return &AncestorInitializer{ancestor: ancestor}
}

// Ancestor 返回持有的祖先上下文。
func (a *AncestorInitializer) Ancestor() *Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ancestor
}

// SetAncestor 替换持有的祖先上下文。
func (a *AncestorInitializer) SetAncestor(ancestor *Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ancestor = ancestor
}

// Initialize 把祖先安装到 ctx 所在链的根部：先沿既有链接走到根，
// 还原根环境中的扩展默认层，再设置祖先引用。
func (a *AncestorInitializer) Initialize(ctx *Context) error {
	if ctx == nil {
		return ErrNilEnvironment
	}
	root := ctx
	for root.Ancestor() != nil && root.Ancestor() != root {
		root = root.Ancestor()
	}
	reorderSources(root.Environment())
	root.SetAncestor(a.Ancestor())
	return nil
}

// reorderSources 解包扩展默认层：还原为普通 map 默认层挂到栈底，
// 被吸收的源逐个插回默认层之前（保持组合内的优先级顺序）。
func reorderSources(env *xenv.Environment) {
	name := xsource.DefaultPropertiesName
	current, ok := env.Sources().Get(name)
	if !ok {
		return
	}
	extended, ok := current.(*xsource.ExtendedDefaultSource)
	if !ok {
		return
	}
	env.Sources().Remove(name)
	env.Sources().AddLast(xsource.NewMapSource(name, extended.Backing().Map()))
	for _, src := range extended.Absorbed() {
		if !env.Sources().Contains(src.Name()) {
			_ = env.Sources().AddBefore(name, src)
		}
	}
}

// closeOnFailureListener 在顶层初始化失败时关闭引导上下文。
type closeOnFailureListener struct {
	ctx *Context
}

// OnEvent 实现 Listener。
func (c *closeOnFailureListener) OnEvent(event Event) {
	if _, failed := event.(*AppFailedEvent); failed {
		_ = c.ctx.Close()
	}
}

package xrebind

import (
	"sort"
	"sync"
	"time"

	"github.com/omeyang/confkit/pkg/context/xboot"
)

// beansRegistry 按上下文索引的登记表实例。上下文关闭时自动注销。
var beansRegistry sync.Map // *xboot.Context -> *Beans

// Beans 配置绑定登记表。
type Beans struct {
	ctx    *xboot.Context
	scopes ScopeRegistry

	mu           sync.RWMutex
	bindings     map[string]Binding
	refreshScope string
	scopeProbed  bool
}

// BeansOption 定义登记表选项。
type BeansOption func(*Beans)

// WithScopes 指定作用域登记表，用于排除刷新作用域内的组件。
func WithScopes(scopes ScopeRegistry) BeansOption {
	return func(b *Beans) {
		b.scopes = scopes
	}
}

// NewBeans 创建并登记一张绑定表。同一上下文重复创建时替换旧表。
func NewBeans(ctx *xboot.Context, opts ...BeansOption) (*Beans, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	b := &Beans{
		ctx:      ctx,
		bindings: make(map[string]Binding),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}
	beansRegistry.Store(ctx, b)
	ctx.OnClose(func() {
		beansRegistry.Delete(ctx)
	})
	return b, nil
}

// BeansFor 查找上下文对应的登记表，本级没有时沿祖先链向上查。
func BeansFor(ctx *xboot.Context) (*Beans, bool) {
	for c := ctx; c != nil; c = c.Ancestor() {
		if value, ok := beansRegistry.Load(c); ok {
			return value.(*Beans), true
		}
	}
	return nil, false
}

// Context 返回登记表所属上下文。
func (b *Beans) Context() *xboot.Context { return b.ctx }

// PostProcess 组件创建钩子：实现 Binder 且不在刷新作用域内的组件
// 被登记。组件原样返回，从不替换。
func (b *Beans) PostProcess(name string, component any) any {
	binder, ok := unwrap(component).(Binder)
	if !ok {
		return component
	}
	if b.inRefreshScope(name) {
		return component
	}
	b.mu.Lock()
	b.bindings[name] = Binding{
		Name:    name,
		Prefix:  binder.BindingPrefix(),
		BoundAt: time.Now(),
	}
	b.mu.Unlock()
	return component
}

// Binding 按名查询登记项，本级没有时沿祖先链向上查。
func (b *Beans) Binding(name string) (Binding, bool) {
	b.mu.RLock()
	binding, ok := b.bindings[name]
	b.mu.RUnlock()
	if ok {
		return binding, true
	}
	if parent, found := BeansFor(b.ctx.Ancestor()); found && parent != b {
		return parent.Binding(name)
	}
	return Binding{}, false
}

// BindingNames 返回全部登记名（含祖先链），排序后去重，本级优先。
func (b *Beans) BindingNames() []string {
	seen := make(map[string]struct{})
	b.mu.RLock()
	for name := range b.bindings {
		seen[name] = struct{}{}
	}
	b.mu.RUnlock()
	if parent, found := BeansFor(b.ctx.Ancestor()); found && parent != b {
		for _, name := range parent.BindingNames() {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len 返回本级登记数。
func (b *Beans) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.bindings)
}

// refreshScoper 刷新作用域的识别特征。
type refreshScoper interface {
	RefreshAll()
}

// inRefreshScope 判断组件是否在刷新作用域内。刷新作用域名按需探测
// 一次并缓存：作用域实现 RefreshAll 即视为刷新作用域。
func (b *Beans) inRefreshScope(name string) bool {
	if b.scopes == nil {
		return false
	}
	b.mu.Lock()
	if !b.scopeProbed {
		for _, scopeName := range b.scopes.ScopeNames() {
			if _, ok := b.scopes.Scope(scopeName).(refreshScoper); ok {
				b.refreshScope = scopeName
				break
			}
		}
		b.scopeProbed = true
	}
	refreshScope := b.refreshScope
	b.mu.Unlock()

	if refreshScope == "" {
		return false
	}
	scope, ok := b.scopes.ComponentScope(name)
	return ok && scope == refreshScope
}

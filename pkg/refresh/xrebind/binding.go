package xrebind

import "time"

// Binding 一条配置绑定登记：组件名、绑定的配置前缀与登记时间。
type Binding struct {
	Name    string
	Prefix  string
	BoundAt time.Time
}

// Binder 配置绑定组件的自描述接口：返回组件绑定的配置键前缀。
// 实现该接口的组件会被 Beans.PostProcess 登记。
type Binder interface {
	BindingPrefix() string
}

// Container 组件容器：重绑所需的最小外部依赖。
// Component 按名取组件；Destroy/Initialize 构成重绑的销毁与重建
// 两个阶段。
type Container interface {
	Component(name string) (any, bool)
	Destroy(name string, component any) error
	Initialize(name string, component any) error
}

// ScopeRegistry 作用域登记表：用于识别刷新作用域内的组件。
type ScopeRegistry interface {
	// ScopeNames 返回已注册的作用域名。
	ScopeNames() []string
	// Scope 按名返回作用域实现，不存在时返回 nil。
	Scope(name string) any
	// ComponentScope 返回组件所属的作用域名。
	ComponentScope(name string) (string, bool)
}

// Unwrapper 包装组件的拆封接口：装饰器、代理等包装层实现它以暴露
// 底层组件。重绑前沿 Unwrap 链走到最底层。
type Unwrapper interface {
	Unwrap() any
}

// unwrap 沿 Unwrap 链拆封到最底层组件。链上出现 nil 时停在上一层。
func unwrap(component any) any {
	for {
		wrapper, ok := component.(Unwrapper)
		if !ok {
			return component
		}
		inner := wrapper.Unwrap()
		if inner == nil {
			return component
		}
		component = inner
	}
}

package xrebind

import (
	"database/sql"
	"fmt"
	"reflect"
	"sync"
)

// TypeRegistry 类型标识符注册表：把配置中的类型标识符（如
// "database/sql.DB"）解析为具体类型。标识符在重绑器构造时解析，
// 拼写错误立即暴露。
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewTypeRegistry 创建空注册表。
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]reflect.Type)}
}

// DefaultTypeRegistry 创建带内置条目的注册表。内置条目覆盖默认
// 不可重绑名单引用的类型。
func DefaultTypeRegistry() *TypeRegistry {
	r := NewTypeRegistry()
	r.Register("database/sql.DB", sql.DB{})
	return r
}

// Register 以 value 的类型注册标识符。指针类型按其指向的类型注册。
func (r *TypeRegistry) Register(identifier string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[identifier] = indirectType(reflect.TypeOf(value))
}

// Resolve 解析标识符。未注册时返回 ErrUnknownType。
func (r *TypeRegistry) Resolve(identifier string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ, ok := r.types[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, identifier)
	}
	return typ, nil
}

// indirectType 剥掉指针层，nil 原样返回。
func indirectType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}

// matchesType 判断组件是否属于给定类型（忽略指针层级）。
func matchesType(component any, typ reflect.Type) bool {
	if component == nil || typ == nil {
		return false
	}
	return indirectType(reflect.TypeOf(component)) == typ
}

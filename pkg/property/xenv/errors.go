package xenv

import "errors"

// 占位符解析相关错误。
var (
	// ErrUnresolvedPlaceholder 表示必需占位符无法解析且无默认值。
	ErrUnresolvedPlaceholder = errors.New("xenv: unresolved placeholder")

	// ErrPlaceholderCycle 表示占位符解析出现循环引用。
	ErrPlaceholderCycle = errors.New("xenv: placeholder cycle detected")
)

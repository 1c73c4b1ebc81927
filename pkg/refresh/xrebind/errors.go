package xrebind

import "errors"

// 登记与重绑相关错误。
var (
	// ErrNilContext 表示缺少所属上下文。
	ErrNilContext = errors.New("xrebind: context is nil")

	// ErrNilContainer 表示缺少组件容器。
	ErrNilContainer = errors.New("xrebind: container is nil")

	// ErrUnknownType 表示不可重绑类型标识符未在类型注册表中注册。
	ErrUnknownType = errors.New("xrebind: unknown type identifier")

	// ErrRebindFailed 表示组件重绑失败（销毁或重建阶段出错）。
	ErrRebindFailed = errors.New("xrebind: rebind failed")
)

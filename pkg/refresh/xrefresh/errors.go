package xrefresh

import "errors"

// 刷新相关错误。
var (
	// ErrNilContext 表示刷新器缺少所属上下文。
	ErrNilContext = errors.New("xrefresh: context is nil")

	// ErrProbeFailed 表示探测环境重建失败，存活环境未被修改。
	ErrProbeFailed = errors.New("xrefresh: probe environment rebuild failed")
)

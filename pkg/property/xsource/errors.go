package xsource

import "errors"

// 属性源栈操作相关错误。
var (
	// ErrSourceNotFound 表示按名字查找的属性源不存在。
	ErrSourceNotFound = errors.New("xsource: property source not found")

	// ErrSelfReference 表示相对定位操作引用了自身。
	ErrSelfReference = errors.New("xsource: property source cannot be added relative to itself")

	// ErrNilSource 表示传入的属性源为 nil。
	ErrNilSource = errors.New("xsource: property source is nil")

	// ErrEmptyName 表示属性源名字为空。
	ErrEmptyName = errors.New("xsource: property source name is empty")
)

package xfileconf

import "errors"

// 文件加载相关错误。
var (
	// ErrLoadFailed 表示文件读取失败（存在但不可读）。
	ErrLoadFailed = errors.New("xfileconf: load failed")

	// ErrParseFailed 表示文件内容解析失败。
	ErrParseFailed = errors.New("xfileconf: parse failed")

	// ErrUnsupportedFormat 表示文件扩展名不在支持范围内。
	ErrUnsupportedFormat = errors.New("xfileconf: unsupported format")

	// ErrNoFiles 表示监视器没有可监视的文件。
	ErrNoFiles = errors.New("xfileconf: no files to watch")

	// ErrInvalidSchedule 表示轮询表达式无效。
	ErrInvalidSchedule = errors.New("xfileconf: invalid poll schedule")
)

package xboot

import "errors"

// 引导协议相关错误。
var (
	// ErrNilApp 表示传入的 App 为 nil。
	ErrNilApp = errors.New("xboot: app is nil")

	// ErrNilEnvironment 表示传入的环境为 nil。
	ErrNilEnvironment = errors.New("xboot: environment is nil")

	// ErrContextClosed 表示上下文已关闭。
	ErrContextClosed = errors.New("xboot: context is closed")

	// ErrBootstrapFailed 表示引导上下文构建失败。
	ErrBootstrapFailed = errors.New("xboot: bootstrap context construction failed")
)

package xetcdconf

import "errors"

// 远端加载相关错误。
var (
	// ErrNilKV 表示缺少 etcd 客户端。
	ErrNilKV = errors.New("xetcdconf: kv client is nil")

	// ErrEmptyPrefix 表示未指定键前缀。
	ErrEmptyPrefix = errors.New("xetcdconf: key prefix is empty")

	// ErrFetchFailed 表示重试耗尽后读取仍然失败。
	ErrFetchFailed = errors.New("xetcdconf: fetch failed")
)

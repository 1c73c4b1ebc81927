// Package xetcdconf 提供基于 etcd 的远端配置加载管道。
//
// Loader 实现 xboot.Pipeline：前缀范围读取 etcd 键值，键名去前缀后
// 按分隔符转成扁平配置键，整体摊成一个属性源挂进环境。读取带重试，
// 瞬时网络抖动不会让引导或刷新探测直接失败。
//
// 依赖通过窄接口 KV 注入，*clientv3.Client 天然满足，测试时可替换
// 为假实现。
package xetcdconf

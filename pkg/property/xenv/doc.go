// Package xenv 提供分层配置环境（Layered Environment）。
//
// # 设计理念
//
// Environment 由一个有序属性源栈（见 pkg/property/xsource）加上
// active/default 两组 profile 元数据构成。键的解析遵循
// "先命中者胜"：栈中最早定义该键的源提供最终值。
//
// # 占位符
//
// 支持 ${key} 与 ${key:default} 占位符，针对同一个栈递归求值：
//
//	port := env.GetString("server.port", "8080")
//	name := env.ResolvePlaceholders("${app.name:unknown}")
//
// ResolvePlaceholders 对无法解析且无默认值的占位符保留原文；
// ResolveRequiredPlaceholders 则返回 ErrUnresolvedPlaceholder。
// 循环引用（a 引用 b、b 引用 a）返回 ErrPlaceholderCycle。
//
// # 并发安全
//
// 源栈的并发语义由 xsource.Sources 保证；profile 读写由内部锁保护，
// 读取返回副本。
package xenv

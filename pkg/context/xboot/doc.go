// Package xboot 提供两阶段引导（bootstrap）协议与上下文祖先链。
//
// # 设计理念
//
// 进程的基础设施配置（远端配置地址、凭证位置等）需要在主环境建立
// 之前解析。xboot 为此构建一个独立的次级环境/上下文（引导上下文）：
// 从调用方环境派生出仅含引导命名空间的最小环境，跑一遍与启动时
// 相同的配置加载管道，再把引导上下文挂为主上下文的逻辑祖先，
// 使属性与组件查找可以沿祖先链回落。
//
// # 引导协议
//
// Bootstrapper.Prepare 的执行顺序：
//
//  1. bootstrap.enabled 为 false 时整个协议跳过；
//  2. 栈中已存在 bootstrap 源说明协议执行过，幂等返回；
//  3. 解析 ${bootstrap.name:bootstrap} 得到 configName；
//  4. 在 App 已声明的祖先链接中查找可复用的引导上下文
//     （标识符匹配 configName，最多向上再走一级）；
//  5. 找不到则构建新引导上下文，并注册顶层失败时关闭它的监听器；
//  6. 把引导上下文中登记的初始化器并入 App（带标记防重复）。
//
// # 默认属性层合并
//
// MergeDefaultProperties 负责在引导栈与主栈之间调和低优先级的
// "默认属性"层：浅合并（主栈已有的键永远不被覆盖）之后，把引导栈
// 中主栈没有的源吸收进 ExtendedDefaultSource 组合，按引导栈原有的
// 优先级顺序排列。被吸收的源从引导栈移除，只活在组合内部。
//
// # 监听器注册表
//
// 引导/探测上下文运行哪些监听器由调用方通过 WithListeners /
// WithProbeListeners 显式选择：刷新探测期间（栈中存在 refreshArgs
// 标记源）使用探测注册表，以排除日志重配置之类的全局副作用。
package xboot

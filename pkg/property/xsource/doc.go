// Package xsource 提供配置属性源（Property Source）模型。
//
// # 设计理念
//
// 属性源是一个有名字的、有序的 key-value 配置层。多个属性源按优先级
// 叠放在 Sources 栈中，键的解析遵循"先命中者胜"（first-match-wins）。
// xsource 只负责数据模型本身，不负责加载（见 pkg/loader）和解析
// （见 pkg/property/xenv）。
//
// # 源的种类
//
//   - MapSource：普通 map 源，可枚举（Keys 可列出全部键）。
//   - CompositeSource：组合源，内部持有一个有序子栈，查找按序委托。
//   - ExtendedDefaultSource：特殊的默认层组合源，包裹一个 MapSource
//     外加一组被"吸收"的源；被吸收的源仅存在于组合内部，可在后续
//     阶段解包还原（见 pkg/context/xboot）。
//   - StubSource：占位源，仅占据栈位，不提供任何值，不参与枚举。
//
// 不实现 EnumerableSource 的源视为不透明源（opaque）：仍可查找，
// 但无法参与全量快照和差异计算。
//
// # 并发安全
//
// Sources 栈与各源实现都通过内部锁保证并发安全。List/Keys 等
// 枚举方法返回快照副本，调用方可安全遍历。
//
// # 保留名称
//
// BootstrapName、DefaultPropertiesName、RefreshArgsName 等常量是框架
// 保留的源名，用户自定义源不应与之冲突。
package xsource

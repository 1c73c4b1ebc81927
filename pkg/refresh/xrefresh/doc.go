// Package xrefresh 提供环境刷新：重建属性源、计算键级差异并广播变更。
//
// # 刷新流程
//
// RefreshEnvironment 在持有环境锁的前提下执行：
//
//  1. 快照当前全部键值，跳过"标准源"（系统环境变量、已解析绑定层
//     等环境外部的层，它们不应产生假阳性差异）；
//  2. 构建临时探测环境：只复制白名单源（命令行参数、默认属性层）
//     与 profile，注入 refreshArgs 标记源，然后对它重跑启动时的
//     引导+配置加载管道——这是刷新中唯一允许对外 I/O 的环节；
//  3. 把探测结果拼接回存活环境：同名源原地替换（保持栈位），
//     新源插在上一个落位源之后，无落位源时插到栈顶。枚举顺序
//     固定为探测栈自身的优先级顺序，保证多个新源一次引入时
//     拼接结果确定；
//  4. 无论探测成败，整条探测上下文链（含祖先）在返回前关闭；
//  5. 再次快照并计算对称差异：消失的键映射到 Removed 标记，
//     新增/变更的键映射到新值。差异以 ChangeEvent 广播。
//
// Refresh 在此之上追加一步：触发刷新作用域（refresh scope）成员的
// 整体重建（由外部协作方实现 RefreshScope）。
//
// # 并发
//
// Refresh/RefreshEnvironment 对同一 Refresher 互斥串行；探测期间持锁，
// 阻塞其它刷新但不阻塞普通读取。不支持中途取消：探测失败仍会先
// 完成清理再把错误抛给调用方。
package xrefresh

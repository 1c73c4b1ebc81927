// Package xrebind 提供配置绑定组件的登记与重绑。
//
// # 登记
//
// Beans 是按上下文隔离的配置绑定登记表：组件创建时经 PostProcess
// 过一遍，实现 Binder 的组件（声明了配置前缀）被记录下来。处在
// 刷新作用域内的组件不登记，它们由作用域整体重建，逐个重绑会造成
// 双重刷新。登记表沿祖先链继承：子上下文查不到的名字向上委托。
//
// # 重绑
//
// Rebinder 监听环境变更事件，对登记表中的组件执行 销毁→重建 循环
// （由外部容器实现 Container）。单个组件失败不会中断整批重绑，
// 错误按组件名记录，可通过 Errors 查询；直接调用 Rebind 的调用方
// 则同步拿到错误。
//
// 个别类型重建代价过高或有副作用（连接池是典型），通过
// refresh.never-refreshable 键声明为不可重绑，标识符在构造时经
// TypeRegistry 解析，未注册的标识符立即报错而不是静默忽略。
package xrebind

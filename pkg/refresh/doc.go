// Package refresh 提供运行期配置刷新相关的子包。
//
// 子包列表：
//   - xrefresh: 环境刷新，重建属性源并计算键级差异
//   - xrebind: 配置绑定组件的登记与重绑
//
// 两个子包通过事件协作：xrefresh 广播变更事件，xrebind 监听并对
// 登记的组件执行 销毁→重建 循环。
package refresh

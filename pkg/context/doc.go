// Package context 提供配置上下文相关的子包。
//
// 子包列表：
//   - xboot: 引导协议，构建次级引导上下文并与主环境做默认层合并
//
// 设计原则：
//   - 上下文链单向无环，祖先链接重复安装时替换而非叠加
//   - 引导阶段是唯一允许对外 I/O 的环节，加载逻辑经 Pipeline 注入
//   - 对重复的环境准备事件幂等
package context

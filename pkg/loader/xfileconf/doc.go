// Package xfileconf 提供基于本地文件的配置加载管道。
//
// Loader 实现 xboot.Pipeline：按环境中的 config.name / config.location /
// config.additional-location 解析候选文件（yaml/yml/json），每个文件
// 摊平成一个属性源挂进环境。profile 专属文件（<name>-<profile>.<ext>）
// 优先于基础文件。缺失的文件静默跳过，解析失败立即报错。
//
// Watcher 监视已解析文件的变更并触发回调，内容指纹不变的伪事件
// （touch、原子写入的中间态）被过滤。Poller 按 cron 表达式定时触发，
// 适合网络文件系统等收不到 inotify 事件的场景。
package xfileconf

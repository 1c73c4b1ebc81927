package xsource

import (
	"sort"
	"sync"
)

// 框架保留的属性源名称。
const (
	// BootstrapName 引导阶段合成源的名字。
	// 该源出现在栈中即表示引导协议已执行过。
	BootstrapName = "bootstrap"

	// DefaultPropertiesName 低优先级"默认属性"层的名字。
	// 引导环境与主环境之间的默认层合并只认这个名字。
	DefaultPropertiesName = "confkitDefaultProperties"

	// RefreshArgsName 刷新探测环境中的临时标记源名字。
	// 下游监听器可据此抑制有副作用的行为（如日志重配置）。
	RefreshArgsName = "refreshArgs"

	// CommandLineName 命令行参数源的名字。
	CommandLineName = "commandLineArgs"

	// SystemEnvironmentName 系统环境变量源的名字。
	SystemEnvironmentName = "systemEnvironment"

	// ConfigurationPropertiesName 已解析绑定结果层的名字。
	// 刷新差异计算会把它视为环境外部的标准源而跳过。
	ConfigurationPropertiesName = "configurationProperties"
)

// PropertySource 定义属性源接口：一个有名字的 key-value 配置层。
type PropertySource interface {
	// Name 返回源的名字。同一个栈内名字唯一。
	Name() string

	// Get 查找键对应的值。第二个返回值表示键是否存在。
	Get(key string) (any, bool)
}

// EnumerableSource 可枚举的属性源：能列出自身全部键。
// 不实现此接口的源视为不透明源，无法参与快照和差异计算。
type EnumerableSource interface {
	PropertySource

	// Keys 返回源内全部键的有序序列（副本）。
	Keys() []string
}

// MapSource 基于 map 的普通属性源。
// 并发安全，Keys 返回按字典序排序的副本。
type MapSource struct {
	name string
	mu   sync.RWMutex
	data map[string]any
}

// NewMapSource 创建 map 属性源。data 会被复制，调用方可继续使用原 map。
func NewMapSource(name string, data map[string]any) *MapSource {
	m := make(map[string]any, len(data))
	for k, v := range data {
		m[k] = v
	}
	return &MapSource{name: name, data: m}
}

// Name 返回源名字。
func (s *MapSource) Name() string { return s.name }

// Get 查找键对应的值。
func (s *MapSource) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Keys 返回全部键的排序副本。
func (s *MapSource) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Put 写入键值。默认层合并时会向主环境的默认层补写缺失的键。
func (s *MapSource) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Map 返回内部数据的副本。
func (s *MapSource) Map() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]any, len(s.data))
	for k, v := range s.data {
		m[k] = v
	}
	return m
}

// Len 返回键数量。
func (s *MapSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// StubSource 占位源：只占据栈位，不提供任何值。
// 引导环境复制调用方的源栈时会跳过占位源。
type StubSource struct {
	name string
}

// NewStubSource 创建占位源。
func NewStubSource(name string) *StubSource { return &StubSource{name: name} }

// Name 返回源名字。
func (s *StubSource) Name() string { return s.name }

// Get 恒返回不存在。
func (s *StubSource) Get(string) (any, bool) { return nil, false }

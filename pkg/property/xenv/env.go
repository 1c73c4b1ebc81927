package xenv

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/omeyang/confkit/pkg/property/xsource"
)

// Environment 分层配置环境：有序属性源栈 + profile 元数据。
type Environment struct {
	sources *xsource.Sources

	mu              sync.RWMutex
	activeProfiles  []string
	defaultProfiles []string
}

// Option 定义环境构造选项。
type Option func(*Environment)

// WithSources 指定初始属性源栈。
func WithSources(sources *xsource.Sources) Option {
	return func(e *Environment) {
		if sources != nil {
			e.sources = sources
		}
	}
}

// WithActiveProfiles 指定初始 active profile。
func WithActiveProfiles(profiles ...string) Option {
	return func(e *Environment) {
		e.activeProfiles = append([]string(nil), profiles...)
	}
}

// WithDefaultProfiles 指定初始 default profile。
func WithDefaultProfiles(profiles ...string) Option {
	return func(e *Environment) {
		e.defaultProfiles = append([]string(nil), profiles...)
	}
}

// New 创建空环境。
func New(opts ...Option) *Environment {
	e := &Environment{
		sources:         xsource.NewSources(),
		defaultProfiles: []string{"default"},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// NewStandard 创建标准环境：预置系统环境变量源。
func NewStandard(opts ...Option) *Environment {
	e := New(opts...)
	e.sources.AddLast(NewSystemEnvironmentSource())
	return e
}

// Sources 返回环境的属性源栈。
func (e *Environment) Sources() *xsource.Sources { return e.sources }

// Get 解析键：返回栈中最早定义该键的源提供的值。
func (e *Environment) Get(key string) (any, bool) {
	for _, src := range e.sources.List() {
		if v, ok := src.Get(key); ok {
			return v, true
		}
	}
	return nil, false
}

// GetString 解析键为字符串，键不存在时返回默认值。
func (e *Environment) GetString(key, def string) string {
	v, ok := e.Get(key)
	if !ok {
		return def
	}
	return toString(v)
}

// GetBool 解析键为布尔值，键不存在或无法转换时返回默认值。
func (e *Environment) GetBool(key string, def bool) bool {
	v, ok := e.Get(key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	default:
		parsed, err := strconv.ParseBool(toString(v))
		if err != nil {
			return def
		}
		return parsed
	}
}

// GetInt 解析键为整数，键不存在或无法转换时返回默认值。
func (e *Environment) GetInt(key string, def int) int {
	v, ok := e.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		parsed, err := strconv.Atoi(toString(v))
		if err != nil {
			return def
		}
		return parsed
	}
}

// ActiveProfiles 返回 active profile 副本。
func (e *Environment) ActiveProfiles() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.activeProfiles...)
}

// SetActiveProfiles 设置 active profile。
func (e *Environment) SetActiveProfiles(profiles ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeProfiles = append([]string(nil), profiles...)
}

// DefaultProfiles 返回 default profile 副本。
func (e *Environment) DefaultProfiles() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.defaultProfiles...)
}

// SetDefaultProfiles 设置 default profile。
func (e *Environment) SetDefaultProfiles(profiles ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultProfiles = append([]string(nil), profiles...)
}

// NewSystemEnvironmentSource 从进程环境变量构建属性源。
func NewSystemEnvironmentSource() *xsource.MapSource {
	m := make(map[string]any)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	return xsource.NewMapSource(xsource.SystemEnvironmentName, m)
}

// NewCommandLineSource 从命令行参数构建属性源。
// 识别 --key=value 与 --flag（值为 "true"）两种形式，其余参数忽略。
func NewCommandLineSource(args []string) *xsource.MapSource {
	m := make(map[string]any)
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		kv := strings.TrimPrefix(arg, "--")
		if kv == "" {
			continue
		}
		if i := strings.IndexByte(kv, '='); i > 0 {
			m[kv[:i]] = kv[i+1:]
		} else {
			m[kv] = "true"
		}
	}
	return xsource.NewMapSource(xsource.CommandLineName, m)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

package xsource

import "sync"

// CompositeSource 组合属性源：内部持有一个有序子栈，查找按序委托，
// 先命中者胜。Keys 按子源顺序合并去重。
type CompositeSource struct {
	name    string
	mu      sync.RWMutex
	sources []PropertySource
}

// NewCompositeSource 创建组合源。
func NewCompositeSource(name string, sources ...PropertySource) *CompositeSource {
	return &CompositeSource{name: name, sources: append([]PropertySource(nil), sources...)}
}

// Name 返回源名字。
func (c *CompositeSource) Name() string { return c.name }

// Get 按子源顺序查找，返回第一个命中的值。
func (c *CompositeSource) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.sources {
		if v, ok := s.Get(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Keys 按子源顺序合并全部可枚举子源的键，保持首次出现顺序并去重。
// 不可枚举的子源被跳过。
func (c *CompositeSource) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	var keys []string
	for _, s := range c.sources {
		e, ok := s.(EnumerableSource)
		if !ok {
			continue
		}
		for _, k := range e.Keys() {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// Add 追加一个子源到末尾（最低优先级）。
func (c *CompositeSource) Add(source PropertySource) {
	if source == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, source)
}

// Sources 返回子源的快照副本。
func (c *CompositeSource) Sources() []PropertySource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]PropertySource(nil), c.sources...)
}

// ExtendedDefaultSource 扩展默认层：包裹一个普通 map 源，外加按吸收顺序
// 排列的一组"被吸收"的源。查找先走吸收子栈，再落回 map。
//
// 被吸收的源只存在于组合内部，不会被重复挂回栈上；祖先链安装阶段
// 可通过 Backing/Absorbed 解包还原（见 pkg/context/xboot）。
type ExtendedDefaultSource struct {
	name     string
	backing  *MapSource
	absorbed *CompositeSource
	mu       sync.RWMutex
	names    []string
}

// NewExtendedDefaultSource 创建扩展默认层。
// existing 为既有默认层：若是 MapSource 则直接作为兜底 map，
// 否则以空 map 兜底。
func NewExtendedDefaultSource(name string, existing PropertySource) *ExtendedDefaultSource {
	backing, ok := existing.(*MapSource)
	if !ok {
		backing = NewMapSource(name, nil)
	}
	return &ExtendedDefaultSource{
		name:     name,
		backing:  backing,
		absorbed: NewCompositeSource(name),
	}
}

// Name 返回源名字。
func (e *ExtendedDefaultSource) Name() string { return e.name }

// Get 先查吸收子栈，再落回兜底 map。
func (e *ExtendedDefaultSource) Get(key string) (any, bool) {
	if v, ok := e.absorbed.Get(key); ok {
		return v, true
	}
	return e.backing.Get(key)
}

// Keys 返回吸收子栈与兜底 map 的全部键，吸收子栈在前。
func (e *ExtendedDefaultSource) Keys() []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, k := range e.absorbed.Keys() {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for _, k := range e.backing.Keys() {
		if _, dup := seen[k]; dup {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// Add 吸收一个源。只吸收可枚举源；同名源不重复吸收。
// 吸收顺序即枚举顺序：先吸收的源在组合内保持更高优先级。
func (e *ExtendedDefaultSource) Add(source PropertySource) {
	enumerable, ok := source.(EnumerableSource)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.names {
		if n == enumerable.Name() {
			return
		}
	}
	e.absorbed.Add(enumerable)
	e.names = append(e.names, enumerable.Name())
}

// SourceNames 返回被吸收源的名字（按吸收顺序）。
func (e *ExtendedDefaultSource) SourceNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.names...)
}

// Absorbed 返回被吸收源的快照副本（按吸收顺序）。
func (e *ExtendedDefaultSource) Absorbed() []PropertySource {
	return e.absorbed.Sources()
}

// Backing 返回兜底 map 源。
func (e *ExtendedDefaultSource) Backing() *MapSource { return e.backing }

package xrefresh

import "sort"

// removedValue 键删除标记的底层类型。
type removedValue struct{}

func (removedValue) String() string { return "<removed>" }

// Removed 键删除标记：刷新后消失的键在 ChangeSet 中映射到它。
var Removed = removedValue{}

// KeySet 键名集合。
type KeySet map[string]struct{}

// NewKeySet 从键名列表构建集合。
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Contains 判断键是否在集合内。
func (s KeySet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// List 返回排序后的键名列表。
func (s KeySet) List() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ChangeSet 一次刷新产生的键级差异：键映射到新值，被删除的键
// 映射到 Removed。
type ChangeSet map[string]any

// Keys 返回差异涉及的键集合。
func (c ChangeSet) Keys() KeySet {
	s := make(KeySet, len(c))
	for k := range c {
		s[k] = struct{}{}
	}
	return s
}

// ChangeEvent 环境变更事件：携带来源与变更键集合。
// 实现 xboot.Event。
type ChangeEvent struct {
	source any
	keys   KeySet
}

// NewChangeEvent 创建变更事件。
func NewChangeEvent(source any, keys KeySet) *ChangeEvent {
	return &ChangeEvent{source: source, keys: keys}
}

// Source 返回事件来源（刷新时为所属上下文）。
func (e *ChangeEvent) Source() any { return e.source }

// Keys 返回变更键集合。
func (e *ChangeEvent) Keys() KeySet { return e.keys }

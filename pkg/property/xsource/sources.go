package xsource

import (
	"fmt"
	"sync"
)

// Sources 有序属性源栈。下标 0 为最高优先级。
//
// 不变量：栈内源名唯一。AddFirst/AddLast 会先移除同名旧源，
// 相对定位操作在目标不存在时返回 ErrSourceNotFound。
//
// 并发安全：读操作返回快照副本；写操作在内部锁保护下原子完成。
type Sources struct {
	mu   sync.RWMutex
	list []PropertySource
}

// NewSources 创建属性源栈，按传入顺序排列（首个优先级最高）。
func NewSources(sources ...PropertySource) *Sources {
	return &Sources{list: append([]PropertySource(nil), sources...)}
}

// Contains 判断栈内是否存在指定名字的源。
func (s *Sources) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(name) >= 0
}

// Get 按名字查找源。
func (s *Sources) Get(name string) (PropertySource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(name); i >= 0 {
		return s.list[i], true
	}
	return nil, false
}

// AddFirst 将源放到栈顶（最高优先级），同名旧源先被移除。
func (s *Sources) AddFirst(source PropertySource) {
	if source == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(source.Name())
	s.list = append([]PropertySource{source}, s.list...)
}

// AddLast 将源放到栈底（最低优先级），同名旧源先被移除。
func (s *Sources) AddLast(source PropertySource) {
	if source == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(source.Name())
	s.list = append(s.list, source)
}

// AddBefore 将源插入到指定名字的源之前（更高优先级）。
func (s *Sources) AddBefore(relativeName string, source PropertySource) error {
	return s.addRelative(relativeName, source, 0)
}

// AddAfter 将源插入到指定名字的源之后（更低优先级）。
func (s *Sources) AddAfter(relativeName string, source PropertySource) error {
	return s.addRelative(relativeName, source, 1)
}

func (s *Sources) addRelative(relativeName string, source PropertySource, offset int) error {
	if source == nil {
		return ErrNilSource
	}
	if source.Name() == "" {
		return ErrEmptyName
	}
	if source.Name() == relativeName {
		return fmt.Errorf("%w: %q", ErrSelfReference, relativeName)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(source.Name())
	i := s.indexOf(relativeName)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, relativeName)
	}
	i += offset
	s.list = append(s.list[:i], append([]PropertySource{source}, s.list[i:]...)...)
	return nil
}

// Replace 原地替换同名源，保持栈位不变。
func (s *Sources) Replace(name string, source PropertySource) error {
	if source == nil {
		return ErrNilSource
	}
	if source.Name() == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, name)
	}
	s.list[i] = source
	return nil
}

// Remove 按名字移除源，返回被移除的源；不存在时返回 nil。
func (s *Sources) Remove(name string) PropertySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(name)
}

// List 返回栈的快照副本（首个优先级最高）。
func (s *Sources) List() []PropertySource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PropertySource(nil), s.list...)
}

// Names 返回栈内源名的快照副本（按优先级降序）。
func (s *Sources) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.list))
	for i, src := range s.list {
		names[i] = src.Name()
	}
	return names
}

// Len 返回栈内源数量。
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

func (s *Sources) indexOf(name string) int {
	for i, src := range s.list {
		if src.Name() == name {
			return i
		}
	}
	return -1
}

func (s *Sources) removeLocked(name string) PropertySource {
	i := s.indexOf(name)
	if i < 0 {
		return nil
	}
	removed := s.list[i]
	s.list = append(s.list[:i], s.list[i+1:]...)
	return removed
}

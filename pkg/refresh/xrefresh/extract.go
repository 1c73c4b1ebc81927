package xrefresh

import (
	"reflect"

	"github.com/omeyang/confkit/pkg/property/xsource"
)

// extract 把源栈摊平成单个键值快照。标准源与不透明源被跳过。
// 栈按倒序遍历：低优先级先写入，高优先级后写入覆盖，保证快照值
// 与环境解析值一致。
func (r *Refresher) extract(sources *xsource.Sources) map[string]any {
	result := make(map[string]any)
	list := sources.List()
	for i := len(list) - 1; i >= 0; i-- {
		if r.isStandard(list[i].Name()) {
			continue
		}
		extractSource(list[i], result)
	}
	return result
}

// extractSource 递归摊平单个源。组合源按倒序展开子源，使组合内
// 靠前（高优先级）的子源最后写入，避免靠后的键静默遮蔽靠前的键。
func extractSource(source xsource.PropertySource, result map[string]any) {
	switch s := source.(type) {
	case *xsource.CompositeSource:
		subs := s.Sources()
		for i := len(subs) - 1; i >= 0; i-- {
			extractSource(subs[i], result)
		}
	case *xsource.ExtendedDefaultSource:
		extractSource(s.Backing(), result)
		subs := s.Absorbed()
		for i := len(subs) - 1; i >= 0; i-- {
			extractSource(subs[i], result)
		}
	default:
		enumerable, ok := source.(xsource.EnumerableSource)
		if !ok {
			// 不透明源无法枚举，不参与差异计算
			return
		}
		for _, key := range enumerable.Keys() {
			if value, exists := enumerable.Get(key); exists {
				result[key] = value
			}
		}
	}
}

// changes 计算两份快照的对称差异。
func changes(before, after map[string]any) ChangeSet {
	result := make(ChangeSet)
	for key, old := range before {
		current, exists := after[key]
		switch {
		case !exists:
			result[key] = Removed
		case !valueEqual(old, current):
			result[key] = current
		}
	}
	for key, current := range after {
		if _, exists := before[key]; !exists {
			result[key] = current
		}
	}
	return result
}

func valueEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

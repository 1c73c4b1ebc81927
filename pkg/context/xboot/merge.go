package xboot

import (
	"github.com/omeyang/confkit/pkg/property/xsource"
)

// MergeDefaultProperties 在主栈与引导栈之间调和"默认属性"层。
// 两步依次执行：
//
//  1. 浅合并：引导栈有默认层而主栈没有时，整层挂到主栈栈底；
//     两边都是普通 map 源时，把引导默认层中主栈缺失的键补进主栈
//     （主栈已有的键永远不被覆盖）。
//  2. 组合吸收：引导栈中主栈没有的源按原有优先级顺序吸收进
//     ExtendedDefaultSource，从引导栈移除，并把组合按名字安装/替换
//     为两个栈的默认层。
//
// 不变量：主栈非默认源中已定义的键不会被吸收源遮蔽——吸收只提供
// 兜底值。多次以同一引导栈合并是幂等的。
func MergeDefaultProperties(environment, bootstrap *xsource.Sources) {
	name := xsource.DefaultPropertiesName
	if source, ok := bootstrap.Get(name); ok {
		if !environment.Contains(name) {
			environment.AddLast(source)
		} else {
			target, _ := environment.Get(name)
			targetMap, targetOK := target.(*xsource.MapSource)
			sourceMap, sourceOK := source.(*xsource.MapSource)
			if targetOK && sourceOK && target != source {
				for key, value := range sourceMap.Map() {
					if _, exists := targetMap.Get(key); !exists {
						targetMap.Put(key, value)
					}
				}
			}
		}
	}
	mergeAdditionalSources(environment, bootstrap)
}

// mergeAdditionalSources 组合吸收阶段（见 MergeDefaultProperties）。
func mergeAdditionalSources(environment, bootstrap *xsource.Sources) {
	name := xsource.DefaultPropertiesName

	var result *xsource.ExtendedDefaultSource
	if current, ok := environment.Get(name); ok {
		if extended, isExtended := current.(*xsource.ExtendedDefaultSource); isExtended {
			result = extended
		} else {
			result = xsource.NewExtendedDefaultSource(name, current)
		}
	} else {
		result = xsource.NewExtendedDefaultSource(name, nil)
	}

	// 按引导栈原有优先级顺序吸收，先吸收者在组合内优先
	for _, source := range bootstrap.List() {
		if !environment.Contains(source.Name()) {
			result.Add(source)
		}
	}
	for _, absorbed := range result.SourceNames() {
		bootstrap.Remove(absorbed)
	}
	addOrReplace(environment, result)
	addOrReplace(bootstrap, result)
}

func addOrReplace(sources *xsource.Sources, source xsource.PropertySource) {
	if sources.Contains(source.Name()) {
		_ = sources.Replace(source.Name(), source)
	} else {
		sources.AddLast(source)
	}
}

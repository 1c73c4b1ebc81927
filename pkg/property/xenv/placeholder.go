package xenv

import (
	"fmt"
	"strings"
)

const (
	placeholderPrefix = "${"
	placeholderSuffix = "}"
	valueSeparator    = ":"
)

// ResolvePlaceholders 解析字符串中的 ${key} / ${key:default} 占位符。
// 无法解析且无默认值的占位符保留原文。
func (e *Environment) ResolvePlaceholders(text string) string {
	resolved, _ := e.resolve(text, false, map[string]struct{}{})
	return resolved
}

// ResolveRequiredPlaceholders 解析占位符；任一占位符无法解析且无默认值
// 时返回 ErrUnresolvedPlaceholder。
func (e *Environment) ResolveRequiredPlaceholders(text string) (string, error) {
	return e.resolve(text, true, map[string]struct{}{})
}

// resolve 递归解析占位符。visiting 记录解析中的键名用于环检测。
func (e *Environment) resolve(text string, required bool, visiting map[string]struct{}) (string, error) {
	var b strings.Builder
	rest := text
	for {
		start := strings.Index(rest, placeholderPrefix)
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:start])
		end := findClosing(rest, start)
		if end < 0 {
			// 无闭合括号，按字面量处理
			b.WriteString(rest[start:])
			return b.String(), nil
		}
		expr := rest[start+len(placeholderPrefix) : end]
		rest = rest[end+len(placeholderSuffix):]

		replacement, err := e.resolveExpr(expr, required, visiting)
		if err != nil {
			return "", err
		}
		b.WriteString(replacement)
	}
}

// resolveExpr 解析单个占位符表达式（不含 ${}）。
func (e *Environment) resolveExpr(expr string, required bool, visiting map[string]struct{}) (string, error) {
	// 表达式自身可能嵌套占位符，先展开
	expanded, err := e.resolve(expr, required, visiting)
	if err != nil {
		return "", err
	}
	name := expanded
	def := ""
	hasDefault := false
	if i := strings.Index(expanded, valueSeparator); i >= 0 {
		name = expanded[:i]
		def = expanded[i+len(valueSeparator):]
		hasDefault = true
	}

	if _, cyclic := visiting[name]; cyclic {
		return "", fmt.Errorf("%w: %q", ErrPlaceholderCycle, name)
	}

	if v, ok := e.Get(name); ok {
		visiting[name] = struct{}{}
		resolved, err := e.resolve(toString(v), required, visiting)
		delete(visiting, name)
		return resolved, err
	}
	if hasDefault {
		return def, nil
	}
	if required {
		return "", fmt.Errorf("%w: %q", ErrUnresolvedPlaceholder, name)
	}
	// 保留原文
	return placeholderPrefix + expanded + placeholderSuffix, nil
}

// findClosing 从 start 处的 "${" 开始，返回与之匹配的 "}" 下标，
// 考虑嵌套占位符；未找到返回 -1。
func findClosing(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], placeholderPrefix):
			depth++
			i++
		case s[i] == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

package xboot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/confkit/pkg/property/xsource"
)

func TestMergeDefaultProperties_AppendWhenMainMissing(t *testing.T) {
	main := xsource.NewSources(xsource.NewMapSource("cmdline", map[string]any{"a": "1"}))
	boot := xsource.NewSources(
		xsource.NewMapSource(xsource.DefaultPropertiesName, map[string]any{"d": "boot"}),
	)

	MergeDefaultProperties(main, boot)

	src, ok := main.Get(xsource.DefaultPropertiesName)
	require.True(t, ok)
	v, ok := src.Get("d")
	require.True(t, ok)
	assert.Equal(t, "boot", v)
}

func TestMergeDefaultProperties_ShallowMergeNeverOverwrites(t *testing.T) {
	mainDefault := xsource.NewMapSource(xsource.DefaultPropertiesName, map[string]any{"shared": "main", "only-main": 1})
	main := xsource.NewSources(mainDefault)
	boot := xsource.NewSources(
		xsource.NewMapSource(xsource.DefaultPropertiesName, map[string]any{"shared": "boot", "only-boot": 2}),
	)

	MergeDefaultProperties(main, boot)

	src, ok := main.Get(xsource.DefaultPropertiesName)
	require.True(t, ok)

	// 主栈自己的键永远不被覆盖
	v, _ := src.Get("shared")
	assert.Equal(t, "main", v)
	// 引导默认层缺失的键被补进来
	v, _ = src.Get("only-boot")
	assert.Equal(t, 2, v)
	v, _ = src.Get("only-main")
	assert.Equal(t, 1, v)
}

func TestMergeDefaultProperties_AbsorbsBootstrapOnlySources(t *testing.T) {
	main := xsource.NewSources(
		xsource.NewMapSource("cmdline", map[string]any{"k": "main-cmdline"}),
	)
	boot := xsource.NewSources(
		xsource.NewMapSource("cmdline", map[string]any{"k": "boot-cmdline"}), // 主栈已有，不吸收
		xsource.NewMapSource("bootfile-a", map[string]any{"k": "a", "fallback": "a"}),
		xsource.NewMapSource("bootfile-b", map[string]any{"k": "b"}),
	)

	MergeDefaultProperties(main, boot)

	src, ok := main.Get(xsource.DefaultPropertiesName)
	require.True(t, ok)
	extended, ok := src.(*xsource.ExtendedDefaultSource)
	require.True(t, ok)

	// 按引导栈原有优先级顺序吸收
	assert.Equal(t, []string{"bootfile-a", "bootfile-b"}, extended.SourceNames())

	// 被吸收的源从引导栈移除，组合安装进两个栈
	assert.False(t, boot.Contains("bootfile-a"))
	assert.False(t, boot.Contains("bootfile-b"))
	assert.True(t, boot.Contains(xsource.DefaultPropertiesName))

	// 组合内先吸收者优先
	v, _ := extended.Get("k")
	assert.Equal(t, "a", v)

	// 主栈非默认源不被遮蔽：cmdline 在默认层之前
	names := main.Names()
	assert.Equal(t, []string{"cmdline", xsource.DefaultPropertiesName}, names)
}

func TestMergeDefaultProperties_Idempotent(t *testing.T) {
	main := xsource.NewSources(
		xsource.NewMapSource("cmdline", map[string]any{"a": "1"}),
		xsource.NewMapSource(xsource.DefaultPropertiesName, map[string]any{"d": "main"}),
	)
	boot := xsource.NewSources(
		xsource.NewMapSource(xsource.DefaultPropertiesName, map[string]any{"d": "boot", "extra": "boot"}),
		xsource.NewMapSource("bootfile", map[string]any{"f": "1"}),
	)

	MergeDefaultProperties(main, boot)

	snapshotNames := main.Names()
	src, _ := main.Get(xsource.DefaultPropertiesName)
	extended := src.(*xsource.ExtendedDefaultSource)
	snapshotAbsorbed := extended.SourceNames()
	dBefore, _ := src.Get("d")
	extraBefore, _ := src.Get("extra")

	// 再合并一次，结果不变
	MergeDefaultProperties(main, boot)

	assert.Equal(t, snapshotNames, main.Names())
	src2, _ := main.Get(xsource.DefaultPropertiesName)
	extended2 := src2.(*xsource.ExtendedDefaultSource)
	assert.Equal(t, snapshotAbsorbed, extended2.SourceNames())
	dAfter, _ := src2.Get("d")
	extraAfter, _ := src2.Get("extra")
	assert.Equal(t, dBefore, dAfter)
	assert.Equal(t, extraBefore, extraAfter)
}

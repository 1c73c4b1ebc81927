//go:build e2e

package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/omeyang/confkit/pkg/context/xboot"
	"github.com/omeyang/confkit/pkg/loader/xetcdconf"
	"github.com/omeyang/confkit/pkg/loader/xfileconf"
	"github.com/omeyang/confkit/pkg/property/xenv"
	"github.com/omeyang/confkit/pkg/refresh/xrebind"
	"github.com/omeyang/confkit/pkg/refresh/xrefresh"
)

// memoryKV 内存版 etcd KV，模拟远端配置中心。
type memoryKV struct {
	data map[string]string
}

func (m *memoryKV) Get(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	resp := &clientv3.GetResponse{}
	for k, v := range m.data {
		if len(k) >= len(key) && k[:len(key)] == key {
			resp.Kvs = append(resp.Kvs, &mvccpb.KeyValue{Key: []byte(k), Value: []byte(v)})
		}
	}
	return resp, nil
}

// serverComponent 绑定 server 前缀的配置组件。
type serverComponent struct {
	rebuilt int
}

func (s *serverComponent) BindingPrefix() string { return "server" }

type recordingContainer struct {
	components map[string]any
}

func (c *recordingContainer) Component(name string) (any, bool) {
	comp, ok := c.components[name]
	return comp, ok
}

func (c *recordingContainer) Destroy(string, any) error { return nil }

func (c *recordingContainer) Initialize(name string, _ any) error {
	if s, ok := c.components[name].(*serverComponent); ok {
		s.rebuilt++
	}
	return nil
}

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

// 完整链路：引导 -> 默认层合并 -> 主配置加载 -> 刷新 -> 重绑。
func TestBootstrapRefreshRebind(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "bootstrap.yaml", "app:\n  name: demo\n")
	writeConfig(t, dir, "application.yaml", "server:\n  port: 8080\n")

	remote := &memoryKV{data: map[string]string{
		"/config/demo/feature/flag": "off",
	}}

	fileLoader := xfileconf.New(xfileconf.WithLocations(dir))
	etcdLoader, err := xetcdconf.New(remote, "/config/demo/")
	require.NoError(t, err)
	pipeline := xboot.Chain(fileLoader, etcdLoader)

	// ===== 引导 =====

	env := xenv.New()
	env.Sources().AddLast(xenv.NewCommandLineSource([]string{
		"--config.location=" + dir,
	}))

	app := xboot.NewApp()
	boot := xboot.New(xboot.WithPipeline(fileLoader))
	bootCtx, err := boot.Prepare(context.Background(), app, env)
	require.NoError(t, err)
	require.NotNil(t, bootCtx)

	// 引导配置经默认层合并进入主环境
	assert.Equal(t, "demo", env.GetString("app.name", ""))

	// ===== 主配置加载 =====

	require.NoError(t, pipeline.Load(context.Background(), env))
	assert.Equal(t, 8080, env.GetInt("server.port", 0))
	assert.Equal(t, "off", env.GetString("feature.flag", ""))

	live := xboot.NewContext(env, xboot.WithID("application"))
	defer live.CloseChain()
	require.NoError(t, app.ApplyInitializers(live))
	require.Same(t, bootCtx, live.Ancestor())

	// ===== 登记与重绑 =====

	server := &serverComponent{}
	container := &recordingContainer{components: map[string]any{"server": server}}
	beans, err := xrebind.NewBeans(live)
	require.NoError(t, err)
	beans.PostProcess("server", server)

	rebinder, err := xrebind.NewRebinder(beans, container)
	require.NoError(t, err)
	live.AddListener(rebinder)

	// ===== 刷新 =====

	refresher, err := xrefresh.New(live,
		xrefresh.WithBootstrapper(boot),
		xrefresh.WithPipeline(pipeline),
	)
	require.NoError(t, err)

	writeConfig(t, dir, "application.yaml", "server:\n  port: 9090\n")
	remote.data["/config/demo/feature/flag"] = "on"

	cs, err := refresher.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9090, cs["server.port"])
	assert.Equal(t, "on", cs["feature.flag"])
	assert.Equal(t, 9090, env.GetInt("server.port", 0))
	assert.Equal(t, "on", env.GetString("feature.flag", ""))

	// 变更事件触发整批重绑
	assert.Equal(t, 1, server.rebuilt)

	// ===== 无变更刷新 =====

	cs, err = refresher.RefreshEnvironment(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cs)
}

// 文件监视驱动刷新：内容变化触发回调，回调里跑 Refresh。
func TestWatchDrivenRefresh(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "application.yaml", "level: 1\n")

	loader := xfileconf.New(xfileconf.WithLocations(dir))
	env := xenv.New()
	require.NoError(t, loader.Load(context.Background(), env))

	live := xboot.NewContext(env, xboot.WithID("application"))
	defer live.CloseChain()
	refresher, err := xrefresh.New(live, xrefresh.WithPipeline(loader))
	require.NoError(t, err)

	done := make(chan xrefresh.ChangeSet, 1)
	watcher, err := xfileconf.Watch(loader.Candidates(env), func([]string) {
		cs, err := refresher.Refresh(context.Background())
		if err == nil {
			done <- cs
		}
	})
	require.NoError(t, err)
	watcher.StartAsync()
	defer func() { _ = watcher.Stop() }()

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, dir, "application.yaml", "level: 2\n")

	select {
	case cs := <-done:
		assert.Equal(t, xrefresh.ChangeSet{"level": 2}, cs)
		assert.Equal(t, 2, env.GetInt("level", 0))
	case <-time.After(5 * time.Second):
		t.Fatal("watch callback not fired")
	}
}

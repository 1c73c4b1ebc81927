package xboot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/omeyang/confkit/pkg/property/xenv"
	"github.com/omeyang/confkit/pkg/property/xsource"
)

// 引导协议消费的配置键。
const (
	// KeyBootstrapEnabled 是否启用引导协议，默认 true。
	KeyBootstrapEnabled = "bootstrap.enabled"

	// KeyBootstrapName 引导配置名，默认 "bootstrap"。
	KeyBootstrapName = "bootstrap.name"

	// KeyBootstrapLocation 引导配置位置。
	KeyBootstrapLocation = "bootstrap.location"

	// KeyBootstrapAdditionalLocation 追加的引导配置位置。
	KeyBootstrapAdditionalLocation = "bootstrap.additional-location"

	// KeyConfigName 管道加载配置文件的基名。
	KeyConfigName = "config.name"

	// KeyConfigLocation 管道加载配置文件的位置。
	KeyConfigLocation = "config.location"

	// KeyConfigAdditionalLocation 追加的配置文件位置。
	KeyConfigAdditionalLocation = "config.additional-location"

	// KeyWebMode 引导/探测上下文固定为 "none"：次级上下文不开网络面。
	KeyWebMode = "confkit.web-mode"
)

// Bootstrapper 引导上下文构建器。
type Bootstrapper struct {
	opts *options
}

type options struct {
	logger         *slog.Logger
	pipeline       Pipeline
	listeners      []Listener
	probeListeners []Listener
}

// Option 定义构建器选项。
type Option func(*options)

func defaultOptions() *options {
	return &options{logger: slog.Default()}
}

// WithBootLogger 指定日志记录器。
func WithBootLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPipeline 指定配置加载管道。引导环境构建后会跑一遍该管道，
// 这是引导协议中唯一允许对外 I/O 的环节。
func WithPipeline(pipeline Pipeline) Option {
	return func(o *options) {
		o.pipeline = pipeline
	}
}

// WithBootListeners 指定引导上下文的监听器注册表（常规启动路径）。
func WithBootListeners(listeners ...Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, listeners...)
	}
}

// WithProbeListeners 指定刷新探测路径的监听器注册表。
// 调用方环境中存在 refreshArgs 标记源时使用该注册表，
// 以排除日志重配置之类的全局副作用监听器。
func WithProbeListeners(listeners ...Listener) Option {
	return func(o *options) {
		o.probeListeners = append(o.probeListeners, listeners...)
	}
}

// New 创建引导上下文构建器。
func New(opts ...Option) *Bootstrapper {
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return &Bootstrapper{opts: o}
}

// Prepare 执行引导协议（见包文档）。返回生效的引导上下文；
// 协议被禁用或已执行过时返回 (nil, nil)。
//
// 对同一进程内的多次环境准备事件幂等：bootstrap 源在栈中出现即
// 视为已引导，直接返回。
func (b *Bootstrapper) Prepare(ctx context.Context, app *App, env *xenv.Environment) (*Context, error) {
	if app == nil {
		return nil, ErrNilApp
	}
	if env == nil {
		return nil, ErrNilEnvironment
	}
	if !env.GetBool(KeyBootstrapEnabled, true) {
		return nil, nil
	}
	if env.Sources().Contains(xsource.BootstrapName) {
		return nil, nil
	}

	configName := env.ResolvePlaceholders("${" + KeyBootstrapName + ":" + BootstrapContextID + "}")

	var boot *Context
	for _, init := range app.Initializers() {
		if ancestor, ok := init.(*AncestorInitializer); ok {
			boot = findBootstrapContext(ancestor, configName)
		}
	}
	if boot == nil {
		built, err := b.buildContext(ctx, app, env, configName)
		if err != nil {
			return nil, err
		}
		boot = built
		app.AddListeners(&closeOnFailureListener{ctx: boot})
	}

	b.apply(boot, app)
	return boot, nil
}

// findBootstrapContext 沿既有祖先链接查找可复用的引导上下文：
// 标识符匹配 configName 即复用；不匹配则向上再走一级后重试一次。
func findBootstrapContext(init *AncestorInitializer, configName string) *Context {
	parent := init.Ancestor()
	if parent != nil && parent.ID() != configName {
		parent = parent.Ancestor()
	}
	if parent != nil && parent.ID() != configName {
		return nil
	}
	return parent
}

// buildContext 构建全新的引导上下文：合成 bootstrap 源 + 复制调用方
// 的非占位源，跑配置加载管道，安装祖先初始化器，最后剥离 bootstrap
// 源并与主栈做默认层合并。
func (b *Bootstrapper) buildContext(ctx context.Context, app *App, env *xenv.Environment, configName string) (*Context, error) {
	bootEnv := xenv.New()

	location := env.ResolvePlaceholders("${" + KeyBootstrapLocation + ":}")
	additional := env.ResolvePlaceholders("${" + KeyBootstrapAdditionalLocation + ":}")
	seed := map[string]any{
		KeyConfigName: configName,
		KeyWebMode:    "none",
	}
	if location != "" {
		seed[KeyConfigLocation] = location
	}
	if additional != "" {
		seed[KeyConfigAdditionalLocation] = additional
	}
	bootEnv.Sources().AddFirst(xsource.NewMapSource(xsource.BootstrapName, seed))

	for _, src := range env.Sources().List() {
		if _, stub := src.(*xsource.StubSource); stub {
			continue
		}
		bootEnv.Sources().AddLast(src)
	}
	bootEnv.SetActiveProfiles(env.ActiveProfiles()...)
	bootEnv.SetDefaultProfiles(env.DefaultProfiles()...)

	// 探测路径使用显式指定的探测监听器注册表
	listeners := b.opts.listeners
	if env.Sources().Contains(xsource.RefreshArgsName) {
		listeners = b.opts.probeListeners
	}

	boot := NewContext(bootEnv,
		WithID(BootstrapContextID),
		WithLogger(b.opts.logger),
		WithListeners(listeners...),
	)

	if b.opts.pipeline != nil {
		if err := b.opts.pipeline.Load(ctx, bootEnv); err != nil {
			// 部分启动的引导上下文必须随失败一起释放
			closeErr := boot.Close()
			return nil, errors.Join(fmt.Errorf("%w: %w", ErrBootstrapFailed, err), closeErr)
		}
	}

	b.installAncestorInitializer(app, boot)

	// bootstrap 源只服务于引导阶段本身，合并前剥离（默认层合并会把
	// 真正需要下沉的引导源吸收回主栈）
	bootEnv.Sources().Remove(xsource.BootstrapName)
	MergeDefaultProperties(env.Sources(), bootEnv.Sources())

	b.opts.logger.Debug("bootstrap context built",
		slog.String("config_name", configName),
		slog.Int("sources", bootEnv.Sources().Len()),
	)
	return boot, nil
}

// installAncestorInitializer 在 App 上安装（或更新）唯一的祖先
// 初始化器。已存在时替换其祖先引用，保证链接不重复。
func (b *Bootstrapper) installAncestorInitializer(app *App, boot *Context) {
	for _, init := range app.Initializers() {
		if ancestor, ok := init.(*AncestorInitializer); ok {
			ancestor.SetAncestor(boot)
			return
		}
	}
	app.AddInitializers(NewAncestorInitializer(boot))
}

// apply 把引导上下文中登记的初始化器并入 App，带标记防止重复并入。
func (b *Bootstrapper) apply(boot *Context, app *App) {
	if !app.markBootstrapped() {
		return
	}
	existing := make(map[Initializer]struct{})
	for _, init := range app.Initializers() {
		existing[init] = struct{}{}
	}
	for _, init := range boot.Initializers() {
		if _, dup := existing[init]; dup {
			continue
		}
		app.AddInitializers(init)
	}
}

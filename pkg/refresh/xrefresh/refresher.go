package xrefresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/omeyang/confkit/pkg/context/xboot"
	"github.com/omeyang/confkit/pkg/property/xenv"
	"github.com/omeyang/confkit/pkg/property/xsource"
)

// KeyRefreshActive 探测标记源中的键：标记一次刷新正在进行。
const KeyRefreshActive = "confkit.refresh.active"

// RefreshScope 刷新作用域协作方：其成员在刷新时整体重建，
// 而非逐个重绑。实现由外部容器提供。
type RefreshScope interface {
	RefreshAll()
}

// defaultSourceWhitelist 探测环境从存活环境复制的源，顺序即栈序。
// 命令行参数必须排第一，否则文件源会遮蔽它。
var defaultSourceWhitelist = []string{
	xsource.CommandLineName,
	xsource.DefaultPropertiesName,
}

// DefaultStandardSources 默认视为环境外部的标准源：不参与快照，
// 也不会被探测结果替换。
func DefaultStandardSources() []string {
	return []string{
		xsource.SystemEnvironmentName,
		xsource.ConfigurationPropertiesName,
	}
}

// Refresher 环境刷新器。
type Refresher struct {
	ctx  *xboot.Context
	opts *options
	mu   sync.Mutex
}

type options struct {
	logger    *slog.Logger
	scope     RefreshScope
	boot      *xboot.Bootstrapper
	pipeline  xboot.Pipeline
	standard  map[string]struct{}
	whitelist []string
}

// Option 定义刷新器选项。
type Option func(*options)

func defaultRefresherOptions() *options {
	standard := make(map[string]struct{})
	for _, name := range DefaultStandardSources() {
		standard[name] = struct{}{}
	}
	return &options{
		logger:    slog.Default(),
		standard:  standard,
		whitelist: append([]string(nil), defaultSourceWhitelist...),
	}
}

// WithRefreshLogger 指定日志记录器。
func WithRefreshLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithScope 指定刷新作用域协作方。Refresh 成功更新环境后调用
// 其 RefreshAll。
func WithScope(scope RefreshScope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// WithBootstrapper 指定探测环境使用的引导构建器。探测会对临时
// 环境重跑完整的引导协议。
func WithBootstrapper(boot *xboot.Bootstrapper) Option {
	return func(o *options) {
		o.boot = boot
	}
}

// WithPipeline 指定探测环境使用的主配置加载管道。
func WithPipeline(pipeline xboot.Pipeline) Option {
	return func(o *options) {
		o.pipeline = pipeline
	}
}

// WithStandardSources 覆盖标准源名单。
func WithStandardSources(names ...string) Option {
	return func(o *options) {
		o.standard = make(map[string]struct{}, len(names))
		for _, name := range names {
			o.standard[name] = struct{}{}
		}
	}
}

// New 创建刷新器。ctx 为刷新器所属（存活）上下文。
func New(ctx *xboot.Context, opts ...Option) (*Refresher, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	o := defaultRefresherOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return &Refresher{ctx: ctx, opts: o}, nil
}

// Context 返回刷新器所属上下文。
func (r *Refresher) Context() *xboot.Context { return r.ctx }

// Refresh 刷新环境并触发刷新作用域成员的整体重建。
// 返回变更键集；重绑失败不影响返回值（错误见 xrebind 的错误表）。
func (r *Refresher) Refresh(ctx context.Context) (ChangeSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, err := r.refreshEnvironment(ctx)
	if err != nil {
		return nil, err
	}
	if r.opts.scope != nil {
		r.opts.scope.RefreshAll()
	}
	return cs, nil
}

// RefreshEnvironment 重建环境并返回变更键集（见包文档的流程说明）。
func (r *Refresher) RefreshEnvironment(ctx context.Context) (ChangeSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshEnvironment(ctx)
}

func (r *Refresher) refreshEnvironment(ctx context.Context) (ChangeSet, error) {
	sources := r.ctx.Environment().Sources()

	before := r.extract(sources)
	if err := r.rebuild(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}
	after := r.extract(sources)

	cs := changes(before, after)
	r.opts.logger.Debug("environment refreshed",
		slog.String("context", r.ctx.ID()),
		slog.Int("changed_keys", len(cs)),
	)
	r.ctx.Publish(NewChangeEvent(r.ctx, cs.Keys()))
	return cs, nil
}

// rebuild 构建探测环境、重跑引导+配置加载管道，并把结果拼接回
// 存活环境。探测上下文链在返回前整体关闭，无论成败。
func (r *Refresher) rebuild(ctx context.Context) error {
	probeEnv := r.copyEnvironment()
	probe := xboot.NewContext(probeEnv,
		xboot.WithID("refresh-probe"),
		xboot.WithLogger(r.opts.logger),
	)
	defer probe.CloseChain()

	app := xboot.NewApp()
	if r.opts.boot != nil {
		if _, err := r.opts.boot.Prepare(ctx, app, probeEnv); err != nil {
			return err
		}
		if err := app.ApplyInitializers(probe); err != nil {
			return err
		}
	}
	if r.opts.pipeline != nil {
		if err := r.opts.pipeline.Load(ctx, probeEnv); err != nil {
			return err
		}
	}

	probeEnv.Sources().Remove(xsource.RefreshArgsName)
	r.splice(probeEnv)
	return nil
}

// copyEnvironment 构建探测环境：白名单源 + profile + refreshArgs 标记。
// 除此之外保持初始状态，与进程启动时一致。
func (r *Refresher) copyEnvironment() *xenv.Environment {
	live := r.ctx.Environment()
	probe := xenv.New()
	for _, name := range r.opts.whitelist {
		if src, ok := live.Sources().Get(name); ok {
			probe.Sources().AddLast(src)
		}
	}
	probe.SetActiveProfiles(live.ActiveProfiles()...)
	probe.SetDefaultProfiles(live.DefaultProfiles()...)
	probe.Sources().AddFirst(xsource.NewMapSource(xsource.RefreshArgsName, map[string]any{
		KeyRefreshActive: true,
		xboot.KeyWebMode: "none",
	}))
	return probe
}

// splice 把探测环境的结果源拼接回存活环境：同名源原地替换，
// 新源插在上一个落位源之后；尚无落位源时插到栈顶。
// 枚举顺序固定为探测栈的优先级顺序，保证拼接结果确定。
func (r *Refresher) splice(probe *xenv.Environment) {
	target := r.ctx.Environment().Sources()
	var anchor string
	placed := false
	for _, source := range probe.Sources().List() {
		name := source.Name()
		if target.Contains(name) {
			anchor = name
			placed = true
		}
		if r.isStandard(name) {
			continue
		}
		if target.Contains(name) {
			_ = target.Replace(name, source)
			continue
		}
		if placed {
			_ = target.AddAfter(anchor, source)
		} else {
			target.AddFirst(source)
			placed = true
		}
		anchor = name
	}
}

func (r *Refresher) isStandard(name string) bool {
	_, ok := r.opts.standard[name]
	return ok
}

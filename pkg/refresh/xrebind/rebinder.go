package xrebind

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/omeyang/confkit/pkg/context/xboot"
	"github.com/omeyang/confkit/pkg/refresh/xrefresh"
)

const (
	// KeyNeverRefreshable 不可重绑类型名单的配置键，逗号分隔的类型
	// 标识符列表。
	KeyNeverRefreshable = "refresh.never-refreshable"

	// DefaultNeverRefreshable 默认不可重绑名单：连接池销毁会拖垮
	// 在途请求。
	DefaultNeverRefreshable = "database/sql.DB"
)

// Rebinder 配置绑定组件的重绑器。实现 xboot.Listener，收到相关的
// 环境变更事件后对登记表中的全部组件执行重绑。
type Rebinder struct {
	beans      *Beans
	container  Container
	opts       *rebinderOptions
	never      []reflect.Type
	neverNames []string

	mu   sync.Mutex
	errs map[string]error
}

type rebinderOptions struct {
	logger *slog.Logger
	types  *TypeRegistry
}

// RebinderOption 定义重绑器选项。
type RebinderOption func(*rebinderOptions)

func defaultRebinderOptions() *rebinderOptions {
	return &rebinderOptions{
		logger: slog.Default(),
		types:  DefaultTypeRegistry(),
	}
}

// WithRebindLogger 指定日志记录器。
func WithRebindLogger(logger *slog.Logger) RebinderOption {
	return func(o *rebinderOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTypes 指定类型标识符注册表。
func WithTypes(types *TypeRegistry) RebinderOption {
	return func(o *rebinderOptions) {
		if types != nil {
			o.types = types
		}
	}
}

// NewRebinder 创建重绑器。不可重绑名单从环境键 refresh.never-refreshable
// 读取并立即经注册表解析，未注册的标识符在此处报 ErrUnknownType。
func NewRebinder(beans *Beans, container Container, opts ...RebinderOption) (*Rebinder, error) {
	if beans == nil {
		return nil, ErrNilContext
	}
	if container == nil {
		return nil, ErrNilContainer
	}
	o := defaultRebinderOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}

	raw := beans.Context().Environment().GetString(KeyNeverRefreshable, DefaultNeverRefreshable)
	var never []reflect.Type
	var neverNames []string
	for _, identifier := range strings.Split(raw, ",") {
		identifier = strings.TrimSpace(identifier)
		if identifier == "" {
			continue
		}
		typ, err := o.types.Resolve(identifier)
		if err != nil {
			return nil, err
		}
		never = append(never, typ)
		neverNames = append(neverNames, identifier)
	}

	return &Rebinder{
		beans:      beans,
		container:  container,
		opts:       o,
		never:      never,
		neverNames: neverNames,
		errs:       make(map[string]error),
	}, nil
}

// NeverRefreshable 返回生效的不可重绑类型标识符列表。
func (r *Rebinder) NeverRefreshable() []string {
	return append([]string(nil), r.neverNames...)
}

// Rebind 重绑单个组件。未登记、容器中缺失或在不可重绑名单内时
// 返回 (false, nil)；销毁或重建失败时记录错误并返回给调用方。
func (r *Rebinder) Rebind(name string) (bool, error) {
	if _, ok := r.beans.Binding(name); !ok {
		return false, nil
	}
	component, ok := r.container.Component(name)
	if !ok {
		return false, nil
	}
	component = unwrap(component)
	for _, typ := range r.never {
		if matchesType(component, typ) {
			return false, nil
		}
	}

	if err := r.container.Destroy(name, component); err != nil {
		wrapped := fmt.Errorf("%w: destroy %s: %w", ErrRebindFailed, name, err)
		r.recordError(name, wrapped)
		return false, wrapped
	}
	if err := r.container.Initialize(name, component); err != nil {
		wrapped := fmt.Errorf("%w: initialize %s: %w", ErrRebindFailed, name, err)
		r.recordError(name, wrapped)
		return false, wrapped
	}
	r.clearError(name)
	return true, nil
}

// RebindAll 重绑登记表中的全部组件。先清空错误表再逐个重绑，
// 单个失败不中断后续组件。
func (r *Rebinder) RebindAll() {
	r.mu.Lock()
	r.errs = make(map[string]error)
	r.mu.Unlock()

	for _, name := range r.beans.BindingNames() {
		rebound, err := r.Rebind(name)
		if err != nil {
			r.opts.logger.Warn("component rebind failed",
				slog.String("component", name),
				slog.Any("error", err),
			)
			continue
		}
		if rebound {
			r.opts.logger.Debug("component rebound", slog.String("component", name))
		}
	}
}

func (r *Rebinder) recordError(name string, err error) {
	r.mu.Lock()
	r.errs[name] = err
	r.mu.Unlock()
}

func (r *Rebinder) clearError(name string) {
	r.mu.Lock()
	delete(r.errs, name)
	r.mu.Unlock()
}

// Errors 返回最近一轮重绑的错误表副本（组件名 -> 错误）。
func (r *Rebinder) Errors() map[string]error {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make(map[string]error, len(r.errs))
	for name, err := range r.errs {
		errs[name] = err
	}
	return errs
}

// OnEvent 实现 xboot.Listener：相关的环境变更事件触发 RebindAll。
func (r *Rebinder) OnEvent(event xboot.Event) {
	change, ok := event.(*xrefresh.ChangeEvent)
	if !ok {
		return
	}
	if !r.relevant(change) {
		return
	}
	r.RebindAll()
}

// relevant 判断事件与本重绑器是否相关：来源是所属上下文，或来源
// 就是事件自身的键集合（手工构造的广播事件）。后者用指针同一性
// 判断，键集合的内容相等不构成相关。
func (r *Rebinder) relevant(change *xrefresh.ChangeEvent) bool {
	source := change.Source()
	if ctx, ok := source.(*xboot.Context); ok {
		return ctx == r.beans.Context()
	}
	if keys, ok := source.(xrefresh.KeySet); ok {
		return reflect.ValueOf(keys).Pointer() == reflect.ValueOf(change.Keys()).Pointer()
	}
	return false
}

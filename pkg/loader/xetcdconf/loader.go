package xetcdconf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	retry "github.com/avast/retry-go/v5"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/omeyang/confkit/pkg/property/xenv"
	"github.com/omeyang/confkit/pkg/property/xsource"
)

// SourcePrefix etcd 属性源的命名前缀。
const SourcePrefix = "etcd:"

// KV etcd 读取的最小接口，*clientv3.Client 满足。
type KV interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// Loader etcd 配置加载器，实现 xboot.Pipeline。
type Loader struct {
	kv     KV
	prefix string
	opts   *options
}

type options struct {
	logger   *slog.Logger
	delim    string
	attempts uint
}

// Option 定义加载器选项。
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:   slog.Default(),
		delim:    ".",
		attempts: 3,
	}
}

// WithLogger 指定日志记录器。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDelim 指定扁平化键分隔符，默认 "."。etcd 键中的 "/" 会被
// 替换为该分隔符。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithAttempts 指定读取重试次数，默认 3。
func WithAttempts(attempts uint) Option {
	return func(o *options) {
		if attempts > 0 {
			o.attempts = attempts
		}
	}
}

// New 创建加载器。prefix 为 etcd 键前缀，如 "/config/myapp/"。
func New(kv KV, prefix string, opts ...Option) (*Loader, error) {
	if kv == nil {
		return nil, ErrNilKV
	}
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return &Loader{kv: kv, prefix: prefix, opts: o}, nil
}

// Load 实现 xboot.Pipeline：前缀读取 etcd 并把结果挂进环境。
// 同名源重复加载时原地替换，保证管道可重入。
func (l *Loader) Load(ctx context.Context, env *xenv.Environment) error {
	var resp *clientv3.GetResponse
	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(l.opts.attempts),
		retry.LastErrorOnly(true),
	).Do(func() error {
		var err error
		resp, err = l.kv.Get(ctx, l.prefix, clientv3.WithPrefix())
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: prefix %s: %w", ErrFetchFailed, l.prefix, err)
	}

	data := make(map[string]any, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		data[l.transformKey(string(kv.Key))] = string(kv.Value)
	}

	// 同名源原地替换；新源在默认层存在时插到它之前，默认层只做兜底
	source := xsource.NewMapSource(SourcePrefix+l.prefix, data)
	switch {
	case env.Sources().Contains(source.Name()):
		_ = env.Sources().Replace(source.Name(), source)
	case env.Sources().Contains(xsource.DefaultPropertiesName):
		_ = env.Sources().AddBefore(xsource.DefaultPropertiesName, source)
	default:
		env.Sources().AddLast(source)
	}

	l.opts.logger.Debug("etcd config loaded",
		slog.String("prefix", l.prefix),
		slog.Int("keys", len(data)),
	)
	return nil
}

// transformKey 把 etcd 键转成扁平配置键：去前缀、去首尾斜杠、
// 路径分隔符替换为配置分隔符。
func (l *Loader) transformKey(key string) string {
	key = strings.TrimPrefix(key, l.prefix)
	key = strings.Trim(key, "/")
	return strings.ReplaceAll(key, "/", l.opts.delim)
}

package xfileconf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/confkit/pkg/context/xboot"
	"github.com/omeyang/confkit/pkg/property/xenv"
	"github.com/omeyang/confkit/pkg/property/xsource"
)

// SourcePrefix 文件属性源的命名前缀。
const SourcePrefix = "file:"

// 支持的扩展名，按查找顺序。
var supportedExts = []string{".yaml", ".yml", ".json"}

// Loader 本地文件配置加载器，实现 xboot.Pipeline。
type Loader struct {
	opts *options
}

type options struct {
	logger    *slog.Logger
	name      string
	locations []string
	delim     string
}

// Option 定义加载器选项。
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:    slog.Default(),
		name:      "application",
		locations: []string{"."},
		delim:     ".",
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

// WithName 指定配置文件基名，默认 "application"。
// 环境中的 config.name 优先于该选项。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLocations 指定查找目录，默认当前目录。
// 环境中的 config.location 优先于该选项。
func WithLocations(locations ...string) Option {
	return func(o *options) {
		if len(locations) > 0 {
			o.locations = locations
		}
	}
}

// WithDelim 指定扁平化键分隔符，默认 "."。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// New 创建加载器。
func New(opts ...Option) *Loader {
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return &Loader{opts: o}
}

// Load 实现 xboot.Pipeline：解析候选文件并把存在的文件挂进环境。
// profile 专属文件排在基础文件之前（高优先级）。同名源重复加载时
// 原地替换，保证管道可重入。
func (l *Loader) Load(ctx context.Context, env *xenv.Environment) error {
	name := env.GetString(xboot.KeyConfigName, l.opts.name)
	locations := l.resolveLocations(env)
	profiles := activeOrDefaultProfiles(env)

	var base, profiled []*xsource.MapSource
	for _, location := range locations {
		for _, ext := range supportedExts {
			source, err := l.loadFile(filepath.Join(location, name+ext))
			if err != nil {
				return err
			}
			if source != nil {
				base = append(base, source)
			}
			for _, profile := range profiles {
				source, err := l.loadFile(filepath.Join(location, name+"-"+profile+ext))
				if err != nil {
					return err
				}
				if source != nil {
					profiled = append(profiled, source)
				}
			}
		}
	}

	for _, source := range profiled {
		addOrReplace(env.Sources(), source)
	}
	for _, source := range base {
		addOrReplace(env.Sources(), source)
	}

	l.opts.logger.Debug("file config loaded",
		slog.String("name", name),
		slog.Int("sources", len(base)+len(profiled)),
	)
	return ctx.Err()
}

// Candidates 返回当前环境下会被查找的全部文件路径，存在与否均列出。
// 供监视器确定监视范围。
func (l *Loader) Candidates(env *xenv.Environment) []string {
	name := env.GetString(xboot.KeyConfigName, l.opts.name)
	profiles := activeOrDefaultProfiles(env)

	var paths []string
	for _, location := range l.resolveLocations(env) {
		for _, ext := range supportedExts {
			paths = append(paths, filepath.Join(location, name+ext))
			for _, profile := range profiles {
				paths = append(paths, filepath.Join(location, name+"-"+profile+ext))
			}
		}
	}
	return paths
}

// resolveLocations 解析查找目录：config.location 覆盖默认目录，
// config.additional-location 追加。
func (l *Loader) resolveLocations(env *xenv.Environment) []string {
	locations := l.opts.locations
	if configured := env.GetString(xboot.KeyConfigLocation, ""); configured != "" {
		locations = splitLocations(configured)
	}
	if additional := env.GetString(xboot.KeyConfigAdditionalLocation, ""); additional != "" {
		locations = append(append([]string(nil), locations...), splitLocations(additional)...)
	}
	return locations
}

// loadFile 加载单个文件。文件不存在返回 (nil, nil)。
func (l *Loader) loadFile(path string) (*xsource.MapSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
	}

	k := koanf.New(l.opts.delim)
	if len(data) > 0 {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParseFailed, path, err)
		}
	}
	return xsource.NewMapSource(SourcePrefix+path, k.All()), nil
}

// parserFor 根据扩展名选择解析器。
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func activeOrDefaultProfiles(env *xenv.Environment) []string {
	if profiles := env.ActiveProfiles(); len(profiles) > 0 {
		return profiles
	}
	return env.DefaultProfiles()
}

func splitLocations(raw string) []string {
	var locations []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			locations = append(locations, part)
		}
	}
	return locations
}

// addOrReplace 同名源原地替换；新源在默认层存在时插到它之前。
// 默认层只提供兜底值，不得遮蔽加载结果。
func addOrReplace(sources *xsource.Sources, source xsource.PropertySource) {
	switch {
	case sources.Contains(source.Name()):
		_ = sources.Replace(source.Name(), source)
	case sources.Contains(xsource.DefaultPropertiesName):
		_ = sources.AddBefore(xsource.DefaultPropertiesName, source)
	default:
		sources.AddLast(source)
	}
}

package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置文件格式。
type Format string

// 支持的格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

const (
	delim = "."
	tag   = "koanf"
)

// Config 已加载的配置，并发安全。
type Config struct {
	k      atomic.Pointer[koanf.Koanf]
	reload sync.Mutex
	path   string
	format Format
}

// New 从文件加载配置，按扩展名识别格式。空文件得到空配置。
func New(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	k, err := readFile(path, format)
	if err != nil {
		return nil, err
	}
	c := &Config{path: path, format: format}
	c.k.Store(k)
	return c, nil
}

// NewFromBytes 从字节数据加载配置。
func NewFromBytes(data []byte, format Format) (*Config, error) {
	k, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	c := &Config{format: format}
	c.k.Store(k)
	return c, nil
}

// Client 返回当前的 koanf 实例。
func (c *Config) Client() *koanf.Koanf {
	return c.k.Load()
}

// Unmarshal 把 path 下的配置解码到 target，path 为空时解码整个配置。
// target 中已有的值在文件未提供对应键时保持不变。
func (c *Config) Unmarshal(path string, target any) error {
	if err := c.k.Load().UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 重新读取配置文件。解析失败时保留旧配置。
func (c *Config) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}
	c.reload.Lock()
	defer c.reload.Unlock()

	k, err := readFile(c.path, c.format)
	if err != nil {
		return err
	}
	c.k.Store(k)
	return nil
}

// Path 返回配置文件路径，从字节数据创建时为空。
func (c *Config) Path() string {
	return c.path
}

// Format 返回配置格式。
func (c *Config) Format() Format {
	return c.format
}

func detectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func readFile(path string, format Format) (*koanf.Koanf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return parse(data, format)
}

func parse(data []byte, format Format) (*koanf.Koanf, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}

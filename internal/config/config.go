package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 aqtalk 的顶层配置结构。
type Config struct {
	AquesTalk AquesTalkConfig `yaml:"aquestalk"`
	Kanji2Koe Kanji2KoeConfig `yaml:"kanji2koe"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
}

// AquesTalkConfig 语音合成库配置。
type AquesTalkConfig struct {
	Library string `yaml:"library"`
	// Speed 发话速度，50-300，100 为标准速度。
	Speed int `yaml:"speed"`
}

// Kanji2KoeConfig 语言处理库配置。
type Kanji2KoeConfig struct {
	Library    string `yaml:"library"`
	Dictionary string `yaml:"dictionary"`
	// DevKey 开发许可密钥，为空则以评估模式运行。
	DevKey string `yaml:"dev_key"`
	// BufferSize 转换输出缓冲区大小（字节），0 表示按输入长度自动估算。
	BufferSize int `yaml:"buffer_size"`
}

// CacheConfig 音声记号转换缓存配置。
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// MaxAgeDays 超过此天数未使用的缓存在启动时清理，0 表示不清理。
	MaxAgeDays int `yaml:"max_age_days"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	cfg := &Config{Cache: CacheConfig{Enabled: true}}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置文件 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// Default 返回全部使用默认值的配置，用于没有配置文件的情况。
func Default() *Config {
	cfg := &Config{Cache: CacheConfig{Enabled: true}}
	setDefaults(cfg)
	return cfg
}

// Validate 检查取值范围。
func (c *Config) Validate() error {
	if c.AquesTalk.Speed < 50 || c.AquesTalk.Speed > 300 {
		return fmt.Errorf("aquestalk.speed 应在 50-300 之间，当前为 %d", c.AquesTalk.Speed)
	}
	if c.Kanji2Koe.BufferSize < 0 {
		return fmt.Errorf("kanji2koe.buffer_size 不能为负数: %d", c.Kanji2Koe.BufferSize)
	}
	if c.Cache.MaxAgeDays < 0 {
		return fmt.Errorf("cache.max_age_days 不能为负数: %d", c.Cache.MaxAgeDays)
	}
	return nil
}

// libraryNames 按平台给出两个原生库的默认文件名。
func libraryNames(goos string) (aquestalk, kanji2koe string) {
	switch goos {
	case "windows":
		return "AquesTalk.dll", "AqKanji2Koe.dll"
	case "darwin":
		return "libAquesTalk.dylib", "libAqKanji2Koe.dylib"
	default:
		return "libAquesTalk.so", "libAqKanji2Koe.so"
	}
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	aqLib, k2kLib := libraryNames(runtime.GOOS)
	if cfg.AquesTalk.Library == "" {
		cfg.AquesTalk.Library = filepath.Join(".", "aquestalk", aqLib)
	}
	if cfg.AquesTalk.Speed == 0 {
		cfg.AquesTalk.Speed = 100
	}
	if cfg.Kanji2Koe.Library == "" {
		cfg.Kanji2Koe.Library = filepath.Join(".", "aqk2k", k2kLib)
	}
	if cfg.Kanji2Koe.Dictionary == "" {
		cfg.Kanji2Koe.Dictionary = filepath.Join(".", "aqk2k", "aq_dic")
	}
	if cfg.Cache.Path == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.Cache.Path = filepath.Join(home, ".aqtalk", "aqtalk.db")
		} else {
			cfg.Cache.Path = "./aqtalk.db"
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	cfg.AquesTalk.Library = expandHome(cfg.AquesTalk.Library)
	cfg.Kanji2Koe.Library = expandHome(cfg.Kanji2Koe.Library)
	cfg.Kanji2Koe.Dictionary = expandHome(cfg.Kanji2Koe.Dictionary)
	cfg.Cache.Path = expandHome(cfg.Cache.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	// 环境变量展开后常带有换行
	cfg.Kanji2Koe.DevKey = strings.TrimSpace(cfg.Kanji2Koe.DevKey)
}

// expandHome 把开头的 ~/ 替换为用户主目录，Go 不会自动展开。
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return p
	}
	return filepath.Join(home, p[2:])
}

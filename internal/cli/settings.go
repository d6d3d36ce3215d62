package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/junbin-yang/go-hsm/pkg/config"
	"github.com/junbin-yang/go-hsm/pkg/hsm"
	"github.com/junbin-yang/go-hsm/pkg/logger"
)

// Settings hsmctl 配置文件
type Settings struct {
	Log struct {
		Level      string `yaml:"level" json:"level" ini:"level" env:"HSMCTL_LOG_LEVEL"`
		Encoding   string `yaml:"encoding" json:"encoding" ini:"encoding" env:"HSMCTL_LOG_ENCODING"` // console 或 json
		File       string `yaml:"file" json:"file" ini:"file" env:"HSMCTL_LOG_FILE"`
		MaxSize    int    `yaml:"max_size" json:"max_size" ini:"max_size"`
		MaxBackups int    `yaml:"max_backups" json:"max_backups" ini:"max_backups"`
		MaxAge     int    `yaml:"max_age" json:"max_age" ini:"max_age"`
		Rotation   string `yaml:"rotation" json:"rotation" ini:"rotation"` // 非空时按时间轮转，如 24h
	} `yaml:"log" json:"log" ini:"log"`

	Machine struct {
		MaxDepth  int `yaml:"max_depth" json:"max_depth" ini:"max_depth" env:"HSMCTL_MAX_DEPTH"`
		QueueSize int `yaml:"queue_size" json:"queue_size" ini:"queue_size"`
		History   int `yaml:"history" json:"history" ini:"history"`
	} `yaml:"machine" json:"machine" ini:"machine"`

	Metrics struct {
		Enabled   bool   `yaml:"enabled" json:"enabled" ini:"enabled" env:"HSMCTL_METRICS"`
		Namespace string `yaml:"namespace" json:"namespace" ini:"namespace"`
	} `yaml:"metrics" json:"metrics" ini:"metrics"`

	Watch bool `yaml:"watch" json:"watch" ini:"watch"`
}

// DefaultSettings 返回默认配置
func DefaultSettings() *Settings {
	s := &Settings{}
	s.Log.Level = "info"
	s.Log.Encoding = "console"
	s.Log.MaxSize = 100
	s.Log.MaxBackups = 10
	s.Log.MaxAge = 30
	s.Machine.MaxDepth = hsm.DefaultMaxDepth
	s.Machine.QueueSize = 64
	s.Metrics.Namespace = "hsmctl"
	return s
}

// loadSettings 加载配置文件。path 为空时按默认路径查找，找不到则使用默认配置，
// 找到但无法解析时返回错误。
func loadSettings(path string) (*Settings, *config.ConfigManager, error) {
	s := DefaultSettings()
	cm := config.NewConfigManager(s, config.WithAppName("hsmctl"))
	if err := cm.LoadConfig(path); err != nil {
		if path == "" && errors.Is(err, config.ErrConfigNotFound) {
			return DefaultSettings(), nil, nil
		}
		return nil, nil, err
	}
	return s, cm, nil
}

// newLogger 按配置创建日志器，未配置文件时写入 stderr
func newLogger(s *Settings, stderr io.Writer) (*logger.Logger, error) {
	level, err := logger.ParseLevel(s.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	out := stderr
	if s.Log.File != "" {
		cfg := &logger.RotateConfig{
			Filename:   s.Log.File,
			MaxSize:    s.Log.MaxSize,
			MaxBackups: s.Log.MaxBackups,
			MaxAge:     s.Log.MaxAge,
			LocalTime:  true,
		}
		if s.Log.Rotation == "" {
			out = logger.NewRotateBySize(cfg)
		} else {
			if cfg.RotationTime, err = time.ParseDuration(s.Log.Rotation); err != nil {
				return nil, fmt.Errorf("log rotation: %w", err)
			}
			if out, err = logger.NewRotateByTime(cfg); err != nil {
				return nil, err
			}
		}
	}
	switch s.Log.Encoding {
	case "", "console":
		return logger.New(out, level), nil
	case "json":
		return logger.NewJSON(out, level), nil
	default:
		return nil, fmt.Errorf("log encoding %q must be console or json", s.Log.Encoding)
	}
}

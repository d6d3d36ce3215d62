package config

import "fmt"

var (
	// ErrNotLoaded 尚未成功调用 LoadConfig
	ErrNotLoaded = fmt.Errorf("config not loaded")

	// ErrConfigNotFound 默认路径下找不到任何配置文件
	ErrConfigNotFound = fmt.Errorf("config file not found")

	// ErrInvalidPath 路径为空、不存在或是目录
	ErrInvalidPath = fmt.Errorf("invalid config path")
)

// Package config 加载状态机定义与命令行工具配置，支持 YAML/JSON/INI、
// 环境变量覆盖以及文件变化后的自动重载。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/junbin-yang/go-hsm/pkg/logger"
)

// ConfigManager 通用配置管理器
type ConfigManager struct {
	instance         any          // 配置实例
	configPath       string       // 配置文件路径
	appName          string       // 应用名称
	serializer       Serializer   // 当前使用的序列化器
	forceFormat      Serializer   // 强制指定的格式（优先级最高）
	supportedFormats []Serializer // 支持的配置格式列表
	defaultPaths     []string     // 默认配置路径模板
	log              *logger.Logger
	once             sync.Once
	mu               sync.RWMutex
	loadErr          error

	// 配置监听相关
	enableWatch           bool
	watchDebounceInterval time.Duration
	watcher               *fsnotify.Watcher
	watchQuit             chan struct{}
	watchOnce             sync.Once
	closeOnce             sync.Once

	callbacks []func(old, new any)
}

// NewConfigManager 创建配置管理器实例，cfg 必须是结构体指针
func NewConfigManager(cfg any, options ...Option) *ConfigManager {
	if cfg == nil {
		panic("config instance cannot be nil")
	}
	if reflect.ValueOf(cfg).Kind() != reflect.Ptr {
		panic("config instance must be a pointer")
	}

	cm := &ConfigManager{
		instance:         cfg,
		appName:          "hsm",
		serializer:       &YAMLSerializer{},
		supportedFormats: []Serializer{&YAMLSerializer{}, &JSONSerializer{}, &INISerializer{}},
		defaultPaths: []string{
			"./{{.AppName}}",
			"{{.ExecDir}}/{{.AppName}}",
			"/etc/{{.AppName}}",
		},
		log:       logger.NewNop(),
		watchQuit: make(chan struct{}),
	}

	for _, opt := range options {
		opt(cm)
	}

	return cm
}

// LoadConfig 加载配置文件，customPath 为空时按默认路径查找。
// 只有第一次调用生效，之后返回第一次的结果。
func (cm *ConfigManager) LoadConfig(customPath string) error {
	cm.once.Do(func() {
		cm.mu.Lock()
		defer cm.mu.Unlock()
		cm.loadErr = cm.load(customPath)
	})

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.loadErr
}

func (cm *ConfigManager) load(customPath string) error {
	var err error
	if customPath != "" {
		if err = checkFile(customPath); err != nil {
			return err
		}
		cm.configPath = customPath
		cm.chooseSerializer(customPath)
	} else if cm.configPath, err = cm.findDefaultConfigPath(); err != nil {
		return err
	}

	if err = cm.parseConfigFile(cm.instance); err != nil {
		return fmt.Errorf("parse config failed: %w", err)
	}
	if err = applyEnvOverrides(cm.instance); err != nil {
		return fmt.Errorf("apply env overrides failed: %w", err)
	}

	cm.log.Debug("配置已加载",
		logger.String("path", cm.configPath),
		logger.String("format", cm.serializer.GetName()),
	)

	if cm.enableWatch {
		if err = cm.startWatch(); err != nil {
			cm.log.Warn("启动配置监听失败", logger.Err(err))
		}
	}
	return nil
}

// GetConfig 获取配置实例
func (cm *ConfigManager) GetConfig() (any, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.loadErr != nil {
		return nil, cm.loadErr
	}
	if cm.configPath == "" {
		return nil, ErrNotLoaded
	}
	return cm.instance, nil
}

// ConfigPath 返回实际加载的配置文件路径
func (cm *ConfigManager) ConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// SaveConfig 保存配置到文件，先写临时文件再替换
func (cm *ConfigManager) SaveConfig() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.configPath == "" {
		return ErrNotLoaded
	}

	data, err := cm.serializer.Marshal(cm.instance)
	if err != nil {
		return fmt.Errorf("marshal config failed: %w", err)
	}

	tmpPath := cm.configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp config failed: %w", err)
	}
	if err := os.Rename(tmpPath, cm.configPath); err != nil {
		return fmt.Errorf("rename temp config failed: %w", err)
	}
	return nil
}

// ReloadConfig 重新读取配置文件，成功后触发变更回调
func (cm *ConfigManager) ReloadConfig() error {
	cm.mu.Lock()

	if cm.configPath == "" {
		cm.mu.Unlock()
		return ErrNotLoaded
	}
	if err := checkFile(cm.configPath); err != nil {
		cm.mu.Unlock()
		return err
	}

	// 解析到新实例，失败时保留原配置
	newInstance := reflect.New(reflect.ValueOf(cm.instance).Elem().Type()).Interface()
	if err := cm.parseConfigFile(newInstance); err != nil {
		cm.mu.Unlock()
		return err
	}
	if err := applyEnvOverrides(newInstance); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("apply env overrides failed: %w", err)
	}

	oldInstance := cm.instance
	cm.instance = newInstance
	cm.loadErr = nil

	callbacks := make([]func(old, new any), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	// 回调在锁外执行
	for _, callback := range callbacks {
		callback(oldInstance, newInstance)
	}
	return nil
}

// EnableWatch 动态启用/禁用配置监听
func (cm *ConfigManager) EnableWatch(enable bool) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.enableWatch = enable
	if enable && cm.configPath != "" {
		return cm.startWatch()
	}
	cm.stopWatch()
	return nil
}

// Close 停止监听
func (cm *ConfigManager) Close() {
	cm.closeOnce.Do(func() {
		cm.mu.Lock()
		cm.stopWatch()
		cm.mu.Unlock()
		close(cm.watchQuit)
	})
}

// OnChange 注册配置变更回调
func (cm *ConfigManager) OnChange(callback func(old, new any)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, callback)
}

/* ------------------------------ 内部方法 ------------------------------ */

// chooseSerializer 强制格式 > 后缀识别 > 默认
func (cm *ConfigManager) chooseSerializer(path string) {
	if cm.forceFormat != nil {
		cm.serializer = cm.forceFormat
		return
	}

	ext := filepath.Ext(path)
	for _, format := range cm.supportedFormats {
		if format.GetFileExt() == ext {
			cm.serializer = format
			return
		}
	}
}

func (cm *ConfigManager) findDefaultConfigPath() (string, error) {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)

	for _, tpl := range cm.defaultPaths {
		for _, path := range cm.candidates(tpl, execDir) {
			if checkFile(path) == nil {
				cm.chooseSerializer(path)
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrConfigNotFound, cm.defaultPaths)
}

// startWatch 调用方需持有写锁
func (cm *ConfigManager) startWatch() error {
	var err error
	cm.watchOnce.Do(func() {
		var w *fsnotify.Watcher
		if w, err = fsnotify.NewWatcher(); err != nil {
			err = fmt.Errorf("create watcher failed: %w", err)
			return
		}
		if err = w.Add(cm.configPath); err != nil {
			_ = w.Close()
			err = fmt.Errorf("add watch path failed: %w", err)
			return
		}
		cm.watcher = w
		go cm.watchLoop(w)
	})
	return err
}

// stopWatch 调用方需持有写锁
func (cm *ConfigManager) stopWatch() {
	cm.watchOnce = sync.Once{}
	if cm.watcher != nil {
		_ = cm.watcher.Close()
		cm.watcher = nil
	}
}

func (cm *ConfigManager) watchLoop(w *fsnotify.Watcher) {
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce.Reset(cm.watchDebounceInterval)
			}

		case <-debounce.C:
			if err := cm.ReloadConfig(); err != nil {
				cm.log.Warn("配置自动重载失败", logger.Err(err))
			} else {
				cm.log.Info("配置已自动重载", logger.String("path", cm.ConfigPath()))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			cm.log.Warn("配置监听错误", logger.Err(err))

		case <-cm.watchQuit:
			return
		}
	}
}

func (cm *ConfigManager) parseConfigFile(v any) error {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return fmt.Errorf("read file failed: %w", err)
	}
	if err := cm.serializer.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal failed (%s): %w", cm.serializer.GetName(), err)
	}
	return nil
}

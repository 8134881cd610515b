package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/junbin-yang/go-crawler/pkg/logger"
)

// ConfigManager 通用配置管理器
type ConfigManager struct {
	instance         interface{}   // 配置实例
	configPath       string        // 配置文件路径
	appName          string        // 应用名称
	serializer       Serializer    // 当前使用的序列化器
	forceFormat      Serializer    // 强制指定的格式（优先级最高）
	supportedFormats []Serializer  // 支持的配置格式列表
	defaultPaths     []string      // 默认配置路径模板
	envPrefix        string        // 环境变量前缀
	log              logger.Logger // 监听与重载日志
	once             sync.Once     // 确保配置只加载一次
	mu               sync.RWMutex  // 读写锁
	loadErr          error         // 加载错误

	// 配置监听相关
	enableWatch           bool              // 是否启用配置监听
	watchDebounceInterval time.Duration     // 防抖间隔
	watcher               *fsnotify.Watcher // 文件监听器
	watchQuit             chan struct{}     // 监听退出信号
	watchOnce             sync.Once         // 确保监听只启动一次
	closeOnce             sync.Once

	// 配置变更回调
	callbacks []func(old, new interface{})
}

// NewConfigManager 创建配置管理器实例
// cfg: 配置结构体指针（必须传入指针）
// options: 配置选项
func NewConfigManager(cfg interface{}, options ...Option) *ConfigManager {
	if cfg == nil {
		panic("config instance cannot be nil")
	}
	if reflect.ValueOf(cfg).Kind() != reflect.Ptr {
		panic("config instance must be a pointer")
	}

	cm := &ConfigManager{
		instance:         cfg,
		appName:          "crawler",
		serializer:       &YAMLSerializer{},
		supportedFormats: []Serializer{&YAMLSerializer{}, &JSONSerializer{}},
		defaultPaths: []string{
			"./{{.AppName}}",
			"{{.ExecDir}}/{{.AppName}}",
			"/etc/{{.AppName}}",
		},
		log:                   logger.Default(),
		watchDebounceInterval: 500 * time.Millisecond,
		watchQuit:             make(chan struct{}),
	}

	for _, opt := range options {
		opt(cm)
	}

	return cm
}

// LoadConfig 加载配置文件
// customPath: 自定义配置路径，空字符串使用默认路径
func (cm *ConfigManager) LoadConfig(customPath string) error {
	cm.once.Do(func() {
		cm.mu.Lock()
		defer cm.mu.Unlock()

		var err error
		if customPath != "" {
			if err = validateConfigPath(customPath); err != nil {
				cm.loadErr = fmt.Errorf("invalid custom config path: %w", err)
				return
			}
			cm.configPath = customPath
			// 强制格式 > 后缀识别 > 默认
			cm.chooseSerializer(customPath)
		} else if cm.configPath, err = cm.findDefaultConfigPath(); err != nil {
			cm.loadErr = fmt.Errorf("default config not found: %w", err)
			return
		}

		if err = cm.parseConfigFile(cm.instance); err != nil {
			cm.loadErr = fmt.Errorf("parse config failed: %w", err)
			return
		}

		if err = applyEnvOverrides(cm.instance, cm.envPrefix); err != nil {
			cm.loadErr = fmt.Errorf("apply env overrides failed: %w", err)
			return
		}

		if cm.enableWatch {
			if err = cm.startWatch(); err != nil {
				cm.log.Warn("config watch disabled", logger.Err(err))
			}
		}
	})

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.loadErr
}

// GetConfig 获取配置实例
func (cm *ConfigManager) GetConfig() (interface{}, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.loadErr != nil {
		return nil, cm.loadErr
	}
	if cm.configPath == "" {
		return nil, errors.New("config not initialized, call LoadConfig first")
	}
	return cm.instance, nil
}

// ConfigPath 返回已加载的配置文件路径
func (cm *ConfigManager) ConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// SaveConfig 保存配置到文件（先写临时文件再替换）
func (cm *ConfigManager) SaveConfig() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.instance == nil || cm.configPath == "" {
		return errors.New("config not initialized")
	}

	data, err := cm.serializer.Marshal(cm.instance)
	if err != nil {
		return fmt.Errorf("marshal config failed: %w", err)
	}

	tmpPath := cm.configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp config failed: %w", err)
	}
	if err := os.Rename(tmpPath, cm.configPath); err != nil {
		return fmt.Errorf("rename temp config failed: %w", err)
	}
	return nil
}

// ReloadConfig 手动重新加载配置，成功后触发变更回调
func (cm *ConfigManager) ReloadConfig() error {
	cm.mu.Lock()

	if cm.configPath == "" {
		cm.mu.Unlock()
		return errors.New("config path not initialized")
	}
	if err := validateConfigPath(cm.configPath); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("invalid config path: %w", err)
	}

	// 创建新实例避免覆盖原数据
	newInstance := reflect.New(reflect.ValueOf(cm.instance).Elem().Type()).Interface()
	if err := cm.parseConfigFile(newInstance); err != nil {
		cm.mu.Unlock()
		return err
	}
	if err := applyEnvOverrides(newInstance, cm.envPrefix); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("apply env overrides failed: %w", err)
	}

	oldInstance := cm.instance
	cm.instance = newInstance
	cm.loadErr = nil

	callbacks := make([]func(old, new interface{}), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	// 在锁外执行回调
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
	if !enable {
		cm.stopWatch()
		return nil
	}
	if cm.configPath == "" {
		return errors.New("config path not initialized")
	}
	return cm.startWatch()
}

// Close 关闭配置管理器（停止监听），可重复调用
func (cm *ConfigManager) Close() {
	cm.closeOnce.Do(func() {
		cm.mu.Lock()
		cm.stopWatch()
		cm.mu.Unlock()
		close(cm.watchQuit)
	})
}

// OnChange 注册配置变更回调
func (cm *ConfigManager) OnChange(callback func(old, new interface{})) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, callback)
}

/* ------------------------------ 内部方法 ------------------------------ */

// chooseSerializer 选择序列化器，无法识别的后缀保留默认序列化器
func (cm *ConfigManager) chooseSerializer(path string) {
	if cm.forceFormat != nil {
		cm.serializer = cm.forceFormat
		return
	}

	ext := filepath.Ext(path)
	for _, format := range cm.supportedFormats {
		for _, e := range fileExts(format) {
			if e == ext {
				cm.serializer = format
				return
			}
		}
	}
}

// findDefaultConfigPath 查找默认配置路径
func (cm *ConfigManager) findDefaultConfigPath() (string, error) {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)

	for _, pathTpl := range cm.defaultPaths {
		basePath := replacePathVars(pathTpl, map[string]string{
			"AppName": cm.appName,
			"ExecDir": execDir,
		})

		// 先尝试无后缀文件
		if err := validateConfigPath(basePath); err == nil {
			cm.chooseSerializer(basePath)
			return basePath, nil
		}

		for _, format := range cm.supportedFormats {
			for _, ext := range fileExts(format) {
				fullPath := basePath + ext
				if err := validateConfigPath(fullPath); err == nil {
					cm.serializer = format
					if cm.forceFormat != nil {
						cm.serializer = cm.forceFormat
					}
					return fullPath, nil
				}
			}
		}
	}

	return "", errors.New("no valid config file found (tried default paths and formats)")
}

// startWatch 启动配置文件监听，调用方需持有写锁
func (cm *ConfigManager) startWatch() error {
	var err error
	cm.watchOnce.Do(func() {
		var w *fsnotify.Watcher
		if w, err = fsnotify.NewWatcher(); err != nil {
			err = fmt.Errorf("create watcher failed: %w", err)
			return
		}
		// 监听所在目录，编辑器的原子替换不会丢失监听
		if err = w.Add(filepath.Dir(cm.configPath)); err != nil {
			_ = w.Close()
			err = fmt.Errorf("add watch path failed: %w", err)
			return
		}
		cm.watcher = w
		go cm.watchLoop(w, filepath.Clean(cm.configPath), cm.watchDebounceInterval)
	})
	if err != nil {
		cm.watchOnce = sync.Once{}
	}
	return err
}

// stopWatch 停止配置文件监听，调用方需持有写锁
func (cm *ConfigManager) stopWatch() {
	cm.watchOnce = sync.Once{}
	if cm.watcher != nil {
		_ = cm.watcher.Close()
		cm.watcher = nil
	}
}

// watchLoop 监听文件变化，防抖后自动重载
func (cm *ConfigManager) watchLoop(w *fsnotify.Watcher, path string, debounce time.Duration) {
	debounceTimer := time.NewTimer(debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounceTimer.Reset(debounce)
			}

		case <-debounceTimer.C:
			if err := cm.ReloadConfig(); err != nil {
				cm.log.Warn("config auto reload failed", logger.String("path", path), logger.Err(err))
			} else {
				cm.log.Info("config auto reloaded", logger.String("path", path))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			cm.log.Warn("config watch error", logger.Err(err))

		case <-cm.watchQuit:
			return
		}
	}
}

// parseConfigFile 解析配置文件到 target，调用方需持有锁
func (cm *ConfigManager) parseConfigFile(target interface{}) error {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return fmt.Errorf("read file failed: %w", err)
	}
	if err := cm.serializer.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal failed (%s): %w", cm.serializer.GetName(), err)
	}
	return nil
}

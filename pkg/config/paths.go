package config

import (
	"fmt"
	"os"
	"strings"
)

// expandPath 展开路径模板中的 {{.AppName}} 与 {{.ExecDir}}
func expandPath(tpl, appName, execDir string) string {
	return strings.NewReplacer(
		"{{.AppName}}", appName,
		"{{.ExecDir}}", execDir,
	).Replace(tpl)
}

// checkFile 确认 path 是一个已存在的普通文件
func checkFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}
	return nil
}

// candidates 按优先级列出某个模板展开后需要尝试的文件：先原样，再依次追加各格式扩展名
func (cm *ConfigManager) candidates(tpl, execDir string) []string {
	base := expandPath(tpl, cm.appName, execDir)
	paths := []string{base}
	for _, format := range cm.supportedFormats {
		paths = append(paths, base+format.GetFileExt())
	}
	return paths
}

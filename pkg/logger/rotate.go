package logger

import (
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig 日志轮转配置
type RotateConfig struct {
	Filename string // 日志文件路径

	// 按大小轮转
	MaxSize    int  // 单个文件最大尺寸（MB）
	MaxBackups int  // 保留旧文件个数
	Compress   bool // 是否压缩旧文件

	// 按时间轮转
	RotationTime time.Duration // 轮转周期

	MaxAge    int  // 旧文件保留天数
	LocalTime bool // 文件名使用本地时间
}

// NewRotateBySize 按文件大小轮转
func NewRotateBySize(cfg *RotateConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		LocalTime:  cfg.LocalTime,
		Compress:   cfg.Compress,
	}
}

// NewProductionRotateBySize 生产环境默认的按大小轮转：100MB，保留 30 天 / 10 个文件
func NewProductionRotateBySize(filename string) io.Writer {
	return NewRotateBySize(&RotateConfig{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
		LocalTime:  true,
	})
}

// NewRotateByTime 按时间轮转，创建失败时返回错误
func NewRotateByTime(cfg *RotateConfig) (io.Writer, error) {
	opts := []rotatelogs.Option{
		rotatelogs.WithLinkName(cfg.Filename),
	}
	if cfg.MaxAge > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge)*24*time.Hour))
	}
	if cfg.RotationTime > 0 {
		opts = append(opts, rotatelogs.WithRotationTime(cfg.RotationTime))
	}
	if cfg.LocalTime {
		opts = append(opts, rotatelogs.WithClock(rotatelogs.Local))
	} else {
		opts = append(opts, rotatelogs.WithClock(rotatelogs.UTC))
	}
	return rotatelogs.New(cfg.Filename+".%Y%m%d%H", opts...)
}

package statemachine

import (
	"github.com/junbin-yang/go-hsm/pkg/hsm"
	"github.com/junbin-yang/go-hsm/pkg/logger"
	"github.com/junbin-yang/go-hsm/pkg/metrics"
)

type options struct {
	name         string
	log          *logger.Logger
	metrics      *metrics.Collector
	historyLimit int
	maxDepth     int
}

// Option 状态机选项
type Option func(*options)

// WithName 设置状态机名称
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger 设置日志器
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithMetrics 将分发与转换次数记录到收集器
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// WithHistory 记录最近 limit 次转换，0 表示不记录
func WithHistory(limit int) Option {
	return func(o *options) {
		if limit >= 0 {
			o.historyLimit = limit
		}
	}
}

// WithMaxDepth 设置层次结构的最大深度，小于 1 时保持默认值
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

func defaultOptions() options {
	return options{
		name:     "statemachine",
		maxDepth: hsm.DefaultMaxDepth,
	}
}

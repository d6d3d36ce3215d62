package hsm

import "github.com/junbin-yang/go-hsm/pkg/logger"

// DefaultMaxDepth 超状态链的默认最大深度
const DefaultMaxDepth = 16

type options struct {
	name     string
	maxDepth int
	log      *logger.Logger
}

func defaultOptions() options {
	return options{
		name:     "hsm",
		maxDepth: DefaultMaxDepth,
	}
}

// Option 状态机选项
type Option func(*options)

// WithName 设置状态机名称（用于日志）
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMaxDepth 设置超状态链的最大深度，受限目标上可调小。
// 小于 1 的值被忽略。
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithLogger 设置日志器，转换与被丢弃的事件以 Debug 级别记录
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// DispatchObserver 共享存储可选实现的分发观察接口，
// 在冒泡链中每次调用处理函数之前触发。
type DispatchObserver[S, U, E any] interface {
	OnDispatch(node StateOrSuperstate[S, U], e E)
}

// TransitionObserver 共享存储可选实现的转换观察接口，
// 在每次转换完成后触发。
type TransitionObserver[S any] interface {
	OnTransition(from, to S)
}

package hsm

// Kind 处理结果类型
type Kind uint8

const (
	// KindHandled 事件已处理，状态不变
	KindHandled Kind = iota
	// KindSuper 交由超状态处理
	KindSuper
	// KindTransition 事件已处理并转换到目标状态
	KindTransition
)

func (k Kind) String() string {
	switch k {
	case KindHandled:
		return "handled"
	case KindSuper:
		return "super"
	case KindTransition:
		return "transition"
	default:
		return "unknown"
	}
}

// Response 状态或超状态处理事件后的返回值。
// 零值等价于 Handled。
type Response[S any] struct {
	kind   Kind
	target S
}

// Handled 事件已被消费，不发生状态变化
func Handled[S any]() Response[S] {
	return Response[S]{kind: KindHandled}
}

// Super 将事件交给超状态继续处理
func Super[S any]() Response[S] {
	return Response[S]{kind: KindSuper}
}

// Transition 消费事件并转换到 target
func Transition[S any](target S) Response[S] {
	return Response[S]{kind: KindTransition, target: target}
}

// Kind 返回结果类型
func (r Response[S]) Kind() Kind {
	return r.kind
}

// Target 返回转换目标，非转换结果返回 false
func (r Response[S]) Target() (S, bool) {
	if r.kind != KindTransition {
		var zero S
		return zero, false
	}
	return r.target, true
}

func (r Response[S]) String() string {
	return r.kind.String()
}

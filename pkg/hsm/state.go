package hsm

import "fmt"

// State 叶子状态的能力集合，由每个具体状态类型实现。
//
// 类型参数：S 为状态类型本身，U 为超状态类型，M 为共享存储，E 为事件。
// 事件通常使用指针类型，以便在整个冒泡链中传递借用的数据而不复制。
type State[S any, U any, M any, E any] interface {
	// Handle 处理事件
	Handle(m *M, e E) Response[S]

	// Superstate 返回直接超状态，没有超状态时返回 false
	Superstate() (U, bool)

	// Entry 进入动作
	Entry(m *M)

	// Exit 退出动作
	Exit(m *M)
}

// Superstate 超状态的能力集合。超状态只在冒泡和转换过程中被访问，
// 从不作为引擎的当前状态；它的超状态链只能指向其他超状态。
type Superstate[S any, U any, M any, E any] interface {
	Handle(m *M, e E) Response[S]
	Superstate() (U, bool)
	Entry(m *M)
	Exit(m *M)

	// Same 判断两个超状态是否为同一变体（只比较身份，不比较携带的数据）
	Same(other U) bool
}

// StateOrSuperstate 分发钩子中即将处理事件的节点视图。
// 仅在钩子调用期间有效，不应被保存。
type StateOrSuperstate[S any, U any] struct {
	state      S
	superstate U
	isState    bool
}

func stateNode[S, U any](s S) StateOrSuperstate[S, U] {
	return StateOrSuperstate[S, U]{state: s, isState: true}
}

func superstateNode[S, U any](u U) StateOrSuperstate[S, U] {
	return StateOrSuperstate[S, U]{superstate: u}
}

// State 节点为叶子状态时返回该状态
func (n StateOrSuperstate[S, U]) State() (S, bool) {
	return n.state, n.isState
}

// Superstate 节点为超状态时返回该超状态
func (n StateOrSuperstate[S, U]) Superstate() (U, bool) {
	return n.superstate, !n.isState
}

// IsState 是否为叶子状态
func (n StateOrSuperstate[S, U]) IsState() bool {
	return n.isState
}

func (n StateOrSuperstate[S, U]) String() string {
	if n.isState {
		return fmt.Sprintf("State(%v)", n.state)
	}
	return fmt.Sprintf("Superstate(%v)", n.superstate)
}

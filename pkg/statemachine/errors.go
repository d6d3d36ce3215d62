package statemachine

import "fmt"

var (
	// ErrInvalidTransition 当没有任何层级处理该事件时返回
	ErrInvalidTransition = fmt.Errorf("invalid transition")

	// ErrTransitionDenied 当守卫拒绝转换时返回
	ErrTransitionDenied = fmt.Errorf("transition denied by guard")

	// ErrStateNotFound 当状态不存在时返回
	ErrStateNotFound = fmt.Errorf("state not found")

	// ErrEventNotFound 当事件不存在时返回
	ErrEventNotFound = fmt.Errorf("event not found")

	// ErrDuplicateTransition 当转换规则已存在时返回
	ErrDuplicateTransition = fmt.Errorf("duplicate transition")

	// ErrDuplicateState 当状态被重复声明到不同的超状态下时返回
	ErrDuplicateState = fmt.Errorf("duplicate state")

	// ErrHierarchyCycle 当超状态链存在环时返回
	ErrHierarchyCycle = fmt.Errorf("state hierarchy cycle")

	// ErrSuperstateTarget 当初始状态或转换目标是超状态时返回
	ErrSuperstateTarget = fmt.Errorf("superstate cannot be current state")

	// ErrSealed 状态机启动后修改定义时返回
	ErrSealed = fmt.Errorf("state machine definition sealed")

	// ErrNotStarted 状态机未启动时返回
	ErrNotStarted = fmt.Errorf("state machine not started")
)

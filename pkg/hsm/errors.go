package hsm

import "fmt"

var (
	// ErrNotInitialized 在未初始化的状态机上处理事件时返回
	ErrNotInitialized = fmt.Errorf("state machine not initialized")

	// ErrAlreadyInitialized 重复初始化时返回
	ErrAlreadyInitialized = fmt.Errorf("state machine already initialized")

	// ErrMaxDepthExceeded 状态层次超过最大深度（通常意味着超状态链存在环）
	ErrMaxDepthExceeded = fmt.Errorf("state hierarchy exceeds max depth")

	// ErrStopped 异步状态机已停止
	ErrStopped = fmt.Errorf("async machine stopped")

	// ErrMachineNotFound 状态机不存在
	ErrMachineNotFound = fmt.Errorf("machine not found")
)

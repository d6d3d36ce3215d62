// Package hsm 实现层次状态机（HSM）的事件分发与状态转换引擎。
//
// 状态层次从不显式建树：每个状态只知道自己的直接超状态，引擎在每次转换时
// 沿超状态链计算深度、最近公共祖先与退出/进入序列，整个过程不分配堆内存。
//
// 基本用法：
//
//	type Machine = hsm.Machine[State, Superstate, Blinky, *Event]
//
//	sm, err := hsm.New[State, Superstate, Blinky, *Event](Blinky{}, LedOn{}).Init()
//	if err != nil {
//		return err
//	}
//	_ = sm.Handle(&Event{Kind: TimerElapsed})
//
// 引擎是单线程、不可重入的：Handle 必须在下一次调用之前完整执行完毕（包括冒泡
// 与由此触发的转换）。需要跨协程访问时使用 Locked、Async 或 Group 包装。
package hsm

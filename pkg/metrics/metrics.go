// Package metrics 将状态机的分发与转换次数导出为 Prometheus 指标。
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/junbin-yang/go-hsm/pkg/hsm"
)

// Collector 状态机指标收集器，实现 prometheus.Collector
type Collector struct {
	dispatches  *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewCollector 创建收集器，machine 作为常量标签区分不同状态机
func NewCollector(namespace, machine string) *Collector {
	constLabels := prometheus.Labels{"machine": machine}
	return &Collector{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "hsm",
			Name:        "dispatch_total",
			Help:        "Number of handler invocations per state or superstate.",
			ConstLabels: constLabels,
		}, []string{"node"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "hsm",
			Name:        "transitions_total",
			Help:        "Number of completed state transitions.",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),
	}
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.dispatches.Describe(ch)
	c.transitions.Describe(ch)
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.dispatches.Collect(ch)
	c.transitions.Collect(ch)
}

// ObserveDispatch 记录一次处理函数调用
func (c *Collector) ObserveDispatch(node string) {
	c.dispatches.WithLabelValues(node).Inc()
}

// ObserveTransition 记录一次转换
func (c *Collector) ObserveTransition(from, to string) {
	c.transitions.WithLabelValues(from, to).Inc()
}

// DispatchHook 返回可直接传给 Uninitialized.OnDispatch 的钩子
func DispatchHook[S, U, M, E any](c *Collector) hsm.DispatchFunc[S, U, M, E] {
	return func(_ *M, node hsm.StateOrSuperstate[S, U], _ E) {
		if s, ok := node.State(); ok {
			c.ObserveDispatch(fmt.Sprint(s))
			return
		}
		u, _ := node.Superstate()
		c.ObserveDispatch(fmt.Sprint(u))
	}
}

// TransitionHook 返回可直接传给 Uninitialized.OnTransition 的钩子
func TransitionHook[S, M any](c *Collector) hsm.TransitionFunc[S, M] {
	return func(_ *M, from, to S) {
		c.ObserveTransition(fmt.Sprint(from), fmt.Sprint(to))
	}
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/junbin-yang/go-hsm/pkg/config"
	"github.com/junbin-yang/go-hsm/pkg/lifecycle"
	"github.com/junbin-yang/go-hsm/pkg/logger"
	"github.com/junbin-yang/go-hsm/pkg/metrics"
	"github.com/junbin-yang/go-hsm/pkg/statemachine"
)

// RunOptions run 命令参数
type RunOptions struct {
	Async   bool
	Metrics bool
}

// Step run 命令每个事件的输出
type Step struct {
	Event statemachine.Event `json:"event"`
	From  statemachine.State `json:"from,omitempty"`
	State statemachine.State `json:"state"`
	Error string             `json:"error,omitempty"`
}

// NewRunCommand 创建 run 命令
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <definition> [events...]",
		Short: "Start a machine and feed it events",
		Long: `Start the machine described by the definition and dispatch events to it.

Events are taken from the arguments, or read from stdin one per line when no
event argument is given. The resulting state is printed after each event.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMachine(rootOpts, opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Async, "async", false, "queue events and print transitions after the queue drains")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print prometheus metrics after the run")

	return cmd
}

func runMachine(rootOpts *RootOptions, opts *RunOptions, path string, args []string, cmd *cobra.Command) error {
	settings, log := rootOpts.env()
	out := rootOpts.formatter(cmd)

	def, err := statemachine.LoadDefinition(path, log)
	if err != nil {
		return out.failure(WrapExitError(ExitCommandError, "load definition", err))
	}

	machineOpts := []statemachine.Option{
		statemachine.WithLogger(log),
		statemachine.WithMaxDepth(settings.Machine.MaxDepth),
		statemachine.WithHistory(settings.Machine.History),
	}

	var collector *metrics.Collector
	if opts.Metrics || settings.Metrics.Enabled {
		collector = metrics.NewCollector(settings.Metrics.Namespace, def.Name)
		machineOpts = append(machineOpts, statemachine.WithMetrics(collector))
	}

	events := eventSource(args, cmd.InOrStdin())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mgr := lifecycle.NewManager(
		lifecycle.WithContext(ctx),
		lifecycle.WithLogger(log),
		lifecycle.WithShutdownTimeout(5*time.Second),
	)

	if opts.Async {
		if settings.Machine.History <= 0 {
			machineOpts = append(machineOpts, statemachine.WithHistory(1024))
		}
		a, err := def.BuildAsync(settings.Machine.QueueSize, machineOpts...)
		if err != nil {
			return out.failure(WrapExitError(ExitFailure, "invalid definition", err))
		}
		_ = mgr.AddWorker("machine", func(ctx context.Context) error {
			defer cancel()
			return feedAsync(ctx, a, events, out)
		}, lifecycle.WithStopFunc(func(context.Context) error {
			a.Stop()
			return nil
		}))
	} else {
		h, err := def.Build(machineOpts...)
		if err != nil {
			return out.failure(WrapExitError(ExitFailure, "invalid definition", err))
		}
		_ = mgr.AddWorker("machine", func(ctx context.Context) error {
			defer cancel()
			return feed(ctx, h, events, out)
		})
	}

	if rootOpts.cfg != nil && settings.Watch {
		if err := watchSettings(mgr, rootOpts.cfg, log); err != nil {
			log.Warn("启动配置监听失败", logger.Err(err))
		}
	}

	if err := mgr.Run(); err != nil {
		return WrapExitError(ExitFailure, "run", err)
	}

	if collector != nil {
		reg := prometheus.NewRegistry()
		if err := reg.Register(collector); err != nil {
			return err
		}
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		writeMetrics(cmd.OutOrStdout(), families)
	}
	return nil
}

// eventSource 返回依次产生事件的函数，参数为空时逐行读取 r
func eventSource(args []string, r io.Reader) func() (statemachine.Event, bool) {
	if len(args) > 0 {
		i := 0
		return func() (statemachine.Event, bool) {
			if i >= len(args) {
				return "", false
			}
			i++
			return statemachine.Event(args[i-1]), true
		}
	}

	scanner := bufio.NewScanner(r)
	return func() (statemachine.Event, bool) {
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				return statemachine.Event(line), true
			}
		}
		return "", false
	}
}

func feed(ctx context.Context, h *statemachine.HSM, next func() (statemachine.Event, bool), out *formatter) error {
	if err := h.Start(ctx); err != nil {
		return err
	}
	out.line(fmt.Sprintf("[*] -> %s", h.Current()), Step{State: h.Current()})

	for e, ok := next(); ok; e, ok = next() {
		if ctx.Err() != nil {
			return nil
		}
		from := h.Current()
		err := h.Trigger(ctx, e)
		step := Step{Event: e, From: from, State: h.Current()}
		if err != nil {
			step.Error = err.Error()
			out.line(fmt.Sprintf("%s: %s !! %v", e, from, err), step)
			continue
		}
		out.line(fmt.Sprintf("%s: %s -> %s", e, from, step.State), step)
	}
	return nil
}

func feedAsync(ctx context.Context, a *statemachine.AsyncHSM, next func() (statemachine.Event, bool), out *formatter) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	out.line(fmt.Sprintf("[*] -> %s", a.Current()), Step{State: a.Current()})

	for e, ok := next(); ok; e, ok = next() {
		if err := a.TriggerAsync(ctx, e); err != nil {
			a.Stop()
			return nil
		}
	}
	a.Stop()

	for _, h := range a.History() {
		out.line(fmt.Sprintf("%s: %s -> %s", h.Event, h.From, h.To), Step{Event: h.Event, From: h.From, State: h.To})
	}
	return nil
}

// watchSettings 配置文件变化时更新日志级别
func watchSettings(mgr *lifecycle.Manager, cm *config.ConfigManager, log *logger.Logger) error {
	cm.OnChange(func(_, new any) {
		s, ok := new.(*Settings)
		if !ok {
			return
		}
		level, err := logger.ParseLevel(s.Log.Level)
		if err != nil {
			log.Warn("忽略无效的日志级别", logger.String("level", s.Log.Level))
			return
		}
		log.SetLevel(level)
		log.Info("日志级别已更新", logger.String("level", level.String()))
	})
	if err := cm.EnableWatch(true); err != nil {
		return err
	}
	return mgr.AddWorker("config-watcher", func(ctx context.Context) error {
		<-ctx.Done()
		return cm.EnableWatch(false)
	})
}

// writeMetrics 以 name{labels} value 的形式输出计数器
func writeMetrics(w io.Writer, families []*dto.MetricFamily) {
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)
			fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junbin-yang/go-hsm/pkg/statemachine"
)

// ValidationResult validate 命令的输出
type ValidationResult struct {
	Name        string             `json:"name"`
	Initial     statemachine.State `json:"initial"`
	States      int                `json:"states"`
	Superstates int                `json:"superstates"`
	Transitions int                `json:"transitions"`
}

// NewValidateCommand 创建 validate 命令
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate <definition>",
		Short:         "Validate a state machine definition",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	h, err := buildMachine(opts, path)
	if err != nil {
		return out.failure(err)
	}

	def := h.Definition()
	result := ValidationResult{
		Name:        def.Name,
		Initial:     def.Initial,
		Transitions: len(def.Transitions),
	}
	parents := make(map[statemachine.State]bool)
	for _, s := range def.States {
		if s.Parent != "" {
			parents[s.Parent] = true
		}
	}
	result.States = len(def.States) - len(parents)
	result.Superstates = len(parents)

	return out.success(fmt.Sprintf("✓ %s is valid: %d states, %d superstates, %d transitions, initial %s",
		result.Name, result.States, result.Superstates, result.Transitions, result.Initial), result)
}

// buildMachine 加载并校验定义文件
func buildMachine(opts *RootOptions, path string, extra ...statemachine.Option) (*statemachine.HSM, *ExitError) {
	settings, log := opts.env()

	def, err := statemachine.LoadDefinition(path, log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load definition", err)
	}

	machineOpts := append([]statemachine.Option{
		statemachine.WithLogger(log),
		statemachine.WithMaxDepth(settings.Machine.MaxDepth),
	}, extra...)

	h, err := def.Build(machineOpts...)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "invalid definition", err)
	}
	return h, nil
}

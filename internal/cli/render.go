package cli

import (
	"github.com/spf13/cobra"
)

// NewRenderCommand 创建 render 命令
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "render <definition>",
		Short:         "Print the definition as a PlantUML state diagram",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := buildMachine(rootOpts, args[0])
			if err != nil {
				return rootOpts.formatter(cmd).failure(err)
			}
			return h.Render(cmd.OutOrStdout())
		},
	}
}

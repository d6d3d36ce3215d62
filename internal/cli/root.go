// Package cli 实现 hsmctl 命令：校验、渲染和运行状态机定义文件。
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junbin-yang/go-hsm/pkg/config"
	"github.com/junbin-yang/go-hsm/pkg/logger"
)

// ValidFormats 支持的输出格式
var ValidFormats = []string{"text", "json"}

// RootOptions 全局参数以及 PersistentPreRunE 准备好的运行环境
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Format     string

	settings *Settings
	cfg      *config.ConfigManager
	log      *logger.Logger
}

// NewRootCommand 创建 hsmctl 根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hsmctl",
		Short: "Hierarchical state machine toolkit",
		Long:  "Validate, render and run hierarchical state machine definitions written in YAML or JSON.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			opts.close()
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (yaml|json|ini)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

func (o *RootOptions) prepare(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return WrapExitError(ExitCommandError, "invalid flag",
			fmt.Errorf("format %q must be one of %v", o.Format, ValidFormats))
	}

	settings, cfg, err := loadSettings(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if o.LogLevel != "" {
		settings.Log.Level = o.LogLevel
	}

	log, err := newLogger(settings, cmd.ErrOrStderr())
	if err != nil {
		if cfg != nil {
			cfg.Close()
		}
		return WrapExitError(ExitCommandError, "init logger", err)
	}

	o.settings, o.cfg, o.log = settings, cfg, log
	return nil
}

func (o *RootOptions) close() {
	if o.cfg != nil {
		o.cfg.Close()
	}
	if o.log != nil {
		_ = o.log.Sync()
	}
}

// env 返回运行环境，单独测试子命令时使用默认配置
func (o *RootOptions) env() (*Settings, *logger.Logger) {
	if o.settings == nil {
		o.settings = DefaultSettings()
	}
	if o.log == nil {
		o.log = logger.NewNop()
	}
	return o.settings, o.log
}

func (o *RootOptions) formatter(cmd *cobra.Command) *formatter {
	return &formatter{format: o.Format, w: cmd.OutOrStdout()}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

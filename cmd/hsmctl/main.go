// hsmctl 校验、渲染和运行层次状态机定义文件。
package main

import (
	"fmt"
	"os"

	"github.com/junbin-yang/go-hsm/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

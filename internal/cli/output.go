package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// 退出码
const (
	ExitSuccess      = 0 // 成功
	ExitFailure      = 1 // 定义校验失败
	ExitCommandError = 2 // 命令错误（文件不存在、参数错误等）
)

// ExitError 携带退出码的错误
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError 包装错误并指定退出码
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode 提取退出码，非 ExitError 返回 ExitFailure
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response json 格式的输出
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// formatter 按 --format 输出 text 或 json
type formatter struct {
	format string
	w      io.Writer
}

// success 输出成功结果，text 模式输出 text
func (f *formatter) success(text string, data any) error {
	if f.format == "json" {
		return json.NewEncoder(f.w).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.w, text)
	return err
}

// failure 输出错误并返回对应的 ExitError
func (f *formatter) failure(exitErr *ExitError) error {
	if f.format == "json" {
		_ = json.NewEncoder(f.w).Encode(Response{Status: "error", Error: exitErr.Error()})
	} else {
		fmt.Fprintf(f.w, "✗ %s\n", exitErr.Error())
	}
	return exitErr
}

// line 输出一条记录，json 模式每行一个对象
func (f *formatter) line(text string, data any) {
	if f.format == "json" {
		_ = json.NewEncoder(f.w).Encode(data)
		return
	}
	fmt.Fprintln(f.w, text)
}

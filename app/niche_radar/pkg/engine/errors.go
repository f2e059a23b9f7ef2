package engine

import (
	"fmt"
	"strings"
)

// ConfigurationError 配置错误，在发起任何网络请求之前返回
type ConfigurationError struct {
	Reason  string
	Missing []string // 缺失凭据的数据源
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) == 0 {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s (missing: %s)", e.Reason, strings.Join(e.Missing, ", "))
}

// PipelineError 扇出之后的处理阶段发生的意外错误
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

package trace

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/qiniu/x/reqid"
	"github.com/qiniu/x/xlog"
)

// TraceID 表示追踪 ID
type TraceID string

// TracePrefix 是所有追踪 ID 的前缀
const TracePrefix = "tfplan"

// generateTraceID 生成唯一的追踪 ID
func generateTraceID() TraceID {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// 随机数生成失败时退回时间戳
		return TraceID(fmt.Sprintf("%s_%d", TracePrefix, time.Now().UnixNano()))
	}
	return TraceID(fmt.Sprintf("%s_%x", TracePrefix, bytes))
}

// NewTraceID 为一次工作流运行创建追踪 ID，runID 为空时随机生成
func NewTraceID(runID string) TraceID {
	if runID == "" {
		return generateTraceID()
	}
	return TraceID(fmt.Sprintf("%s_%s", TracePrefix, runID))
}

// NewContext 把追踪 ID 作为 reqid 放进上下文，xlog.NewWith(ctx) 会带上它
func NewContext(ctx context.Context, traceID TraceID) context.Context {
	return reqid.NewContext(ctx, string(traceID))
}

// GetTraceID 从上下文中获取追踪 ID
func GetTraceID(ctx context.Context) TraceID {
	id, ok := reqid.FromContext(ctx)
	if !ok {
		return ""
	}
	return TraceID(id)
}

// FromContext 返回带追踪 ID 的日志器，上下文中没有追踪 ID 时返回 nil
func FromContext(ctx context.Context) *xlog.Logger {
	id := GetTraceID(ctx)
	if id == "" {
		return nil
	}
	return xlog.New(string(id))
}

package pipeline

import (
	"context"
	"time"
)

// Outcome statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Outcome 描述一次通过校验的生成请求的结果
type Outcome struct {
	Prompt        string
	RefinedPrompt string
	Mode          string
	Status        string
	ImageURL      string
	ImageKey      string
	ReferenceURLs []string
	ErrorCode     string
	ErrorMessage  string
	StartedAt     time.Time
	Duration      time.Duration
}

// Recorder 持久化生成结果。错误只记录日志，不影响响应。
type Recorder interface {
	RecordOutcome(ctx context.Context, outcome Outcome) error
}

// RecorderFunc 把函数适配为 Recorder
type RecorderFunc func(ctx context.Context, outcome Outcome) error

// RecordOutcome implements Recorder.
func (f RecorderFunc) RecordOutcome(ctx context.Context, outcome Outcome) error {
	return f(ctx, outcome)
}

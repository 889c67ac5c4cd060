// Package alert delivers storage failures to the operator.
//
// Only StorageUnavailable and Unknown failures become alerts. Business outcomes
// such as a missing row or a duplicate key are answered to the caller and never
// reach this package.
package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"revue/internal/errors"
)

// Alert describes one failure the operator should look at
type Alert struct {
	ID     string           `json:"id"`
	Op     string           `json:"op"`
	Code   errors.ErrorCode `json:"code"`
	Detail string           `json:"detail"`
	Time   time.Time        `json:"time"`
}

// New stamps an alert with an id and the current time
func New(op string, code errors.ErrorCode, detail string) Alert {
	return Alert{
		ID:     uuid.New().String(),
		Op:     op,
		Code:   code,
		Detail: detail,
		Time:   time.Now().UTC(),
	}
}

// Notifier receives operator alerts. Implementations must not block for long
// and must not retry.
type Notifier interface {
	Notify(ctx context.Context, a Alert)
}

// Nop drops every alert
type Nop struct{}

func (Nop) Notify(context.Context, Alert) {}

// LogNotifier writes alerts to the operator log
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, a Alert) {
	n.logger.LogAttrs(ctx, slog.LevelError, "Storage failure",
		slog.String("alert_id", a.ID),
		slog.String("op", a.Op),
		slog.String("code", string(a.Code)),
		slog.String("detail", a.Detail),
	)
}

// Multi fans an alert out to several notifiers
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a Alert) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, a)
		}
	}
}

package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log. It is used when Redis is not
// configured so decisions remain visible somewhere.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at info level
func (l *LogNotifier) Notify(_ context.Context, n *DecisionNotification) error {
	l.logger.Info("order decision",
		zap.String("order_id", n.OrderID),
		zap.String("status", n.Status),
		zap.String("requester_id", n.RequesterID),
		zap.String("decided_by", n.DecidedBy),
		zap.String("decided_at", n.DecidedAt),
		zap.String("note", n.Note),
	)
	return nil
}

// Close is a no-op
func (l *LogNotifier) Close() error { return nil }

var _ Notifier = (*LogNotifier)(nil)

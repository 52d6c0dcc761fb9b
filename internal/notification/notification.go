package notification

import (
	"context"
	"log/slog"
)

const (
	// KindContentPurchased tells a creator their content was bought.
	KindContentPurchased = "content_purchased"
	// KindTopUpCompleted tells a reader their NWT purchase settled.
	KindTopUpCompleted = "topup_completed"
	// KindTopUpFailed tells a reader their NWT purchase was rejected.
	KindTopUpFailed = "topup_failed"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}

// Deliver sends message and logs, rather than returns, any failure. Ledger
// state is already committed when notifications go out.
func Deliver(ctx context.Context, n Notifier, logger *slog.Logger, message Message) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, message); err != nil && logger != nil {
		logger.Warn("notification failed", slog.String("kind", message.Kind), slog.String("destination", message.Destination), slog.Any("error", err))
	}
}

package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/nerdwork/nwt_ledger/internal/logging"
)

type failingNotifier struct{ calls int }

func (f *failingNotifier) Send(context.Context, Message) error {
	f.calls++
	return errors.New("downstream unavailable")
}

func TestDeliverSwallowsFailures(t *testing.T) {
	n := &failingNotifier{}
	Deliver(context.Background(), n, logging.Discard(), Message{Kind: KindContentPurchased, Destination: "c1"})
	if n.calls != 1 {
		t.Fatalf("expected one send attempt, got %d", n.calls)
	}
	Deliver(context.Background(), nil, logging.Discard(), Message{Kind: KindTopUpCompleted})
}

func TestLoggerNotifierNilSafe(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{Kind: KindTopUpFailed}); err != nil {
		t.Fatalf("nil notifier should be a no-op, got %v", err)
	}
	if err := NewLoggerNotifier(logging.Discard()).Send(context.Background(), Message{Kind: KindTopUpCompleted}); err != nil {
		t.Fatalf("send: %v", err)
	}
}

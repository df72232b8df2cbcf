package logger

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := NewLogger(filepath.Join(t.TempDir(), "test.log"))
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	return l
}

func TestSubscriberReceivesLogLines(t *testing.T) {
	l := newTestLogger(t)
	defer l.Close()

	ch := l.Subscribe()
	if ch == nil {
		t.Fatalf("Subscribe returned nil on an open logger")
	}
	defer l.Unsubscribe(ch)

	l.Printf("worker %d finished", 3)

	select {
	case line := <-ch:
		if !strings.Contains(line, "[INFO]") || !strings.Contains(line, "worker 3 finished") {
			t.Errorf("unexpected log line: %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("log line never reached subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	l := newTestLogger(t)
	defer l.Close()

	ch := l.Subscribe()
	l.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Errorf("expected closed channel after Unsubscribe, got a line")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed after Unsubscribe")
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	l := newTestLogger(t)
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if ch := l.Subscribe(); ch != nil {
		t.Errorf("expected nil channel from a closed logger")
	}
}

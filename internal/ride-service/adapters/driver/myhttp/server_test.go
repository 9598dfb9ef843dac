package myhttp

import (
	"context"
	"testing"
	"time"

	"travelo/internal/config"
	"travelo/internal/mylogger"
)

// A subscription loop only watches the server context. Stop must end it even
// when the parent context is never cancelled, as on a failed startup.
func TestStopEndsBackgroundLoopsWithLiveParent(t *testing.T) {
	parent := context.Background()
	s := NewServer(parent, parent, mylogger.Discard(), &config.Config{Srv: &config.Serviceconfig{ShutdownTimeout: time.Second}})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-s.ctx.Done()
	}()

	done := make(chan error, 1)
	go func() { done <- s.Stop(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a loop waiting for cancellation")
	}
	if parent.Err() != nil {
		t.Fatal("parent context must stay untouched")
	}
}

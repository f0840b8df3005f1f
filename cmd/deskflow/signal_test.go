package main

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestSignalHandler_StopWithoutSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewSignalHandler(ctx, cancel)
	h.Start()

	stopped := make(chan struct{})
	go func() {
		h.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return")
	}
	if ctx.Err() != nil {
		t.Error("context cancelled without a signal")
	}
}

func TestSignalHandler_CancelsOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewSignalHandler(ctx, cancel)
	h.Start()
	h.sigChan <- syscall.SIGTERM

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after signal")
	}
	h.Stop()
}

package main

import (
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestShutdownSignals(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, sig ...os.Signal) {
		go func() {
			ch <- syscall.SIGTERM
		}()
	}

	server := &http.Server{}
	called := make(chan struct{}, 1)
	server.RegisterOnShutdown(func() {
		called <- struct{}{}
	})

	logger := zaptest.NewLogger(t)
	shutdown(server, time.Millisecond, logger)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatalf("expected server shutdown callback to execute")
	}
}

func TestServeShutsDownOnSignal(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})
	signalNotify = func(ch chan<- os.Signal, sig ...os.Signal) {
		go func() {
			time.Sleep(50 * time.Millisecond)
			ch <- syscall.SIGTERM
		}()
	}

	dir := t.TempDir()
	writeConfig(t, dir, sampleConfig)

	stdout, stderr, code := runCLI(t, "--dir", dir, "serve", "--port", "127.0.0.1:0", "--watch")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stdout %q, stderr %q)", code, stdout, stderr)
	}
}

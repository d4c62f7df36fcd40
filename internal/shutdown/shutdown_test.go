package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunWithGracefulShutdown_RunnerFinishes(t *testing.T) {
	want := errors.New("boom")
	shutdownCalled := false

	err := RunWithGracefulShutdown(context.Background(), discardLogger(), time.Second,
		func(ctx context.Context) error { return want },
		func(ctx context.Context) error { shutdownCalled = true; return nil },
	)

	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
	if shutdownCalled {
		t.Error("shutdown must not run when the runner exits on its own")
	}
}

func TestRunWithGracefulShutdown_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunWithGracefulShutdown(ctx, discardLogger(), time.Second,
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		nil,
	)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRun_Signal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	sigChan <- syscall.SIGTERM

	shutdownCalled := false
	err := run(ctx, cancel, sigChan, discardLogger(), time.Second,
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		func(ctx context.Context) error { shutdownCalled = true; return nil },
	)

	if err != nil {
		t.Errorf("err = %v, want nil after signal", err)
	}
	if !shutdownCalled {
		t.Error("shutdown should be called on signal")
	}
}

func TestRun_SignalTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	sigChan <- syscall.SIGINT

	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	err := run(ctx, cancel, sigChan, discardLogger(), 50*time.Millisecond,
		func(ctx context.Context) error {
			<-release
			return nil
		},
		nil,
	)

	if err != nil {
		t.Errorf("err = %v, want nil after timeout", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("run returned before the shutdown timeout")
	}
}

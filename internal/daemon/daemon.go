// Package daemon exposes a running controller for external control via
// Unix socket RPC.
package daemon

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/npratt/damageflow/internal/config"
	"github.com/npratt/damageflow/internal/controller"
	"github.com/npratt/damageflow/internal/stage"
)

// Controller is the part of the stage controller the daemon drives.
type Controller interface {
	State() controller.RunState
	Catalog() *stage.Catalog
	Pause()
	Resume()
	Toggle()
	Reset()
	SelectBranch(id stage.BranchID)
}

// Daemon serves control requests for a controller on a Unix socket.
type Daemon struct {
	controller Controller
	layout     *stage.Layout
	sockPath   string
	startTime  time.Time
	logger     *slog.Logger
	onStop     func()

	running  bool
	listener net.Listener
	mu       sync.RWMutex
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithOnStop sets the callback invoked when a client requests a stop. It
// typically cancels the context the host is running under.
func WithOnStop(fn func()) Option {
	return func(d *Daemon) {
		d.onStop = fn
	}
}

// New creates a Daemon for ctrl listening on cfg.Paths.Socket. ctrl may be
// nil, in which case every control method reports an error.
func New(cfg *config.Config, ctrl Controller, logger *slog.Logger, opts ...Option) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{
		controller: ctrl,
		sockPath:   cfg.Paths.Socket,
		logger:     logger,
	}
	if ctrl != nil {
		d.layout = stage.NewLayout(ctrl.Catalog())
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Running returns whether the daemon is currently running.
func (d *Daemon) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// StartTime returns when the daemon was started.
func (d *Daemon) StartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// SocketPath returns the Unix socket path.
func (d *Daemon) SocketPath() string {
	return d.sockPath
}

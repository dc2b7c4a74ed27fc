package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine multiplies NumCPU when NewManager gets a non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs functions in goroutines with a bounded concurrency limit.
//
// Errors returned by tasks are collected and joined by Wait. A panicking task
// is recovered and recorded as an error instead of crashing the process, so
// one misbehaving send cannot take down its siblings.
type Manager struct {
	mu     sync.Mutex
	errs   []error
	wg     sync.WaitGroup
	sema   chan struct{}
	stateM sync.RWMutex
	closed bool
}

// NewManager creates a Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go schedules f in a goroutine if capacity is available. When the manager is
// at its limit or already closed, f is not run and a warning is logged.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.stateM.RLock()
	closed := g.closed
	g.stateM.RUnlock()
	if closed {
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case g.sema <- struct{}{}:
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			defer func() {
				<-g.sema

				if rvr := recover(); rvr != nil {
					stack := debug.Stack()
					paths := stacktrace.InternalPaths(stack)
					if len(paths) == 0 {
						slog.ErrorContext(pCtx, "panic in goroutine", "because", rvr, "stack", string(stack))
					} else {
						slog.ErrorContext(pCtx, "panic in goroutine", "because", rvr, "stack", paths)
					}
					g.record(fmt.Errorf("goroutine panic: %v", rvr))
				}
			}()

			select {
			case <-pCtx.Done():
				slog.WarnContext(pCtx, "goroutine canceled before start", "because", pCtx.Err())
				g.record(pCtx.Err())
			default:
				if err := f(pCtx); err != nil {
					g.record(err)
				}
			}
		}()

	default:
		slog.WarnContext(pCtx, "goroutine limit reached, task not started")
		g.record(errors.New("goroutine limit reached"))
	}
}

// Wait blocks until all scheduled goroutines finish and returns the joined
// errors. The manager is closed afterwards and rejects further tasks.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateM.Lock()
	g.closed = true
	g.stateM.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

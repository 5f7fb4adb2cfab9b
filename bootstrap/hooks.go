package bootstrap

import (
	"context"
	"errors"
	"fmt"
)

// Hook is a lifecycle callback of the hosted application.
type Hook func(ctx context.Context) error

// OnStart registers hooks that run after the managed components started,
// before the ready check.
func (a *App[C]) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnReady registers hooks that run once the ready check passed, right
// before the application serves traffic.
func (a *App[C]) OnReady(hooks ...Hook) {
	a.onReady = append(a.onReady, hooks...)
}

// OnStop registers hooks that run at shutdown before the components stop.
// They run in reverse registration order.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks runs hooks in order and stops at the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d: %w", i, err)
		}
	}
	return nil
}

// drainHooks runs every hook in reverse order and joins their errors.
func drainHooks(ctx context.Context, hooks []Hook) error {
	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, fmt.Errorf("hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

package setup

import (
	"context"
	"fmt"
	"io"
	"sync"

	apperrors "github.com/kbukum/injectkit/errors"
)

// Task is an operational action exposed on the admin port.
type Task interface {
	Name() string
	Execute(ctx context.Context, params map[string][]string, out io.Writer) error
}

// AdminEnvironment holds admin tasks.
type AdminEnvironment struct {
	mu    sync.RWMutex
	tasks []Task
}

// NewAdminEnvironment creates an empty AdminEnvironment.
func NewAdminEnvironment() *AdminEnvironment {
	return &AdminEnvironment{}
}

// AddTask registers task. Task names must be non-empty and unique.
func (a *AdminEnvironment) AddTask(task Task) error {
	if task == nil {
		return fmt.Errorf("setup: nil task")
	}
	name := task.Name()
	if name == "" {
		return fmt.Errorf("setup: task %T has no name", task)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.tasks {
		if t.Name() == name {
			return fmt.Errorf("setup: task %s already registered", name)
		}
	}
	a.tasks = append(a.tasks, task)
	return nil
}

// Task returns the task registered under name.
func (a *AdminEnvironment) Task(name string) (Task, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, t := range a.tasks {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Tasks returns the registered tasks in order.
func (a *AdminEnvironment) Tasks() []Task {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Task(nil), a.tasks...)
}

// Run executes the task called name. Unknown names yield a NOT_FOUND
// AppError.
func (a *AdminEnvironment) Run(ctx context.Context, name string, params map[string][]string, out io.Writer) error {
	task, ok := a.Task(name)
	if !ok {
		return apperrors.NotFound("task", name)
	}
	return task.Execute(ctx, params, out)
}

type funcTask struct {
	name string
	fn   func(ctx context.Context, params map[string][]string, out io.Writer) error
}

// NewTask creates a Task from a function.
func NewTask(name string, fn func(ctx context.Context, params map[string][]string, out io.Writer) error) Task {
	return &funcTask{name: name, fn: fn}
}

func (t *funcTask) Name() string { return t.name }

func (t *funcTask) Execute(ctx context.Context, params map[string][]string, out io.Writer) error {
	return t.fn(ctx, params, out)
}

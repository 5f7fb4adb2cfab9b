package setup

import (
	"fmt"
	"sync"

	"github.com/kbukum/injectkit/logger"
)

// Bundle is a reusable group of application setup steps.
type Bundle interface {
	Initialize(bs *Bootstrap) error
	Run(env *Environment) error
}

// ConfiguredBundle is a Bundle that needs the application configuration
// to run.
type ConfiguredBundle[C any] interface {
	Initialize(bs *Bootstrap) error
	Run(cfg C, env *Environment) error
}

// Bootstrap is the pre-configuration environment of an application.
type Bootstrap struct {
	name string
	log  *logger.Logger

	mu      sync.Mutex
	bundles []Bundle
}

// NewBootstrap creates a Bootstrap. A nil logger uses the global logger.
func NewBootstrap(name string, log *logger.Logger) *Bootstrap {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Bootstrap{name: name, log: log.WithComponent("bootstrap")}
}

// Name returns the application name.
func (bs *Bootstrap) Name() string { return bs.name }

// Logger returns the bootstrap logger.
func (bs *Bootstrap) Logger() *logger.Logger { return bs.log }

// AddBundle initializes b and keeps it for the run phase.
func (bs *Bootstrap) AddBundle(b Bundle) error {
	if b == nil {
		return fmt.Errorf("setup: nil bundle")
	}
	if err := b.Initialize(bs); err != nil {
		return fmt.Errorf("initialize bundle %T: %w", b, err)
	}

	bs.mu.Lock()
	bs.bundles = append(bs.bundles, b)
	bs.mu.Unlock()

	bs.log.Debug("Bundle added", map[string]interface{}{"bundle": fmt.Sprintf("%T", b)})
	return nil
}

// Bundles returns the added bundles in order.
func (bs *Bootstrap) Bundles() []Bundle {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	result := make([]Bundle, len(bs.bundles))
	copy(result, bs.bundles)
	return result
}

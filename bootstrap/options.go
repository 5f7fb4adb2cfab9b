package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/kbukum/injectkit/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// Option configures the App during creation. Options are not generic so
// the same values serve every configuration type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	summaryOut      io.Writer
}

func newOptions(opts []Option) appOptions {
	o := appOptions{gracefulTimeout: defaultGracefulTimeout, summaryOut: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the application logger. Without it the global logger is
// initialized from the Logging section of the configuration.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds the shutdown sequence. Non-positive values
// keep the default of 15s.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}

// WithSummaryWriter sets where the startup summary is printed. Pass
// io.Discard to silence it.
func WithSummaryWriter(w io.Writer) Option {
	return func(o *appOptions) {
		if w != nil {
			o.summaryOut = w
		}
	}
}

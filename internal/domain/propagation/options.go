package propagation

import (
	"github.com/keldra/resirel/pkg/logger"
)

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithWorkers sets how many goroutines scan characters. 1 keeps the scan
// fully sequential.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithProgressEvery sets how often (in characters) progress is logged.
// 0 disables progress logging.
func WithProgressEvery(n int) Option {
	return func(b *Builder) {
		if n >= 0 {
			b.progressEvery = n
		}
	}
}

// WithLogger sets a custom logger for the builder.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

package chest

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/hupe1980/chest/codec"
	"github.com/hupe1980/chest/internal/fs"
	"github.com/hupe1980/chest/sizeof"
)

type options struct {
	dir             string
	availableMemory int64 // <0: derive from host free memory
	codec           codec.Codec
	estimator       *sizeof.Registry
	logger          *Logger
	limiter         *rate.Limiter
	fsys            fs.FileSystem
}

// Option configures Open behavior.
type Option func(*options)

// WithDir stores entries under path instead of a fresh temporary directory.
// The directory is created if needed, tagged persistent, and survives Close;
// a later store opened at the same path sees the keys that were flushed.
func WithDir(path string) Option {
	return func(o *options) {
		o.dir = path
	}
}

// WithAvailableMemory sets the in-memory byte budget. Zero forces every
// serializable entry to disk. When unset, the budget defaults to the host's
// free memory, resolved once at construction.
func WithAvailableMemory(n int64) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.availableMemory = n
	}
}

// WithCodec configures the codec used for disk-resident entries.
//
// If nil is passed, codec.Default is used. Reopening a directory requires the
// codec its files were written with.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithEstimator configures the size estimator registry consulted for memory
// accounting. If nil is passed, sizeof.Default is used.
func WithEstimator(r *sizeof.Registry) Option {
	return func(o *options) {
		if r == nil {
			r = sizeof.Default
		}
		o.estimator = r
	}
}

// WithWriteRateLimit throttles disk-write throughput to bytesPerSec.
// Zero or negative disables throttling.
func WithWriteRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		if bytesPerSec <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// withFileSystem injects a filesystem; tests use it for fault injection.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		availableMemory: -1,
		codec:           codec.Default,
		estimator:       sizeof.Default,
		logger:          NoopLogger(),
		fsys:            fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

package sqlqc

import "go.uber.org/zap"

// Option configures a parse/compile/build call. Every public entry
// point accepts a variadic list of Options so callers can plug in a
// structured logger without changing every call site's signature.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger attaches a zap logger used for diagnostic messages emitted
// while parsing and compiling a query (join resolution, dialect
// selection). It never affects the emitted SQL text.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

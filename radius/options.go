package radius

import "log/slog"

type options struct {
	useIndex bool
	logger   *slog.Logger
}

type Option interface {
	apply(*options)
}

type withoutIndex struct{}

func (withoutIndex) apply(o *options) { o.useIndex = false }

// WithoutIndex disables the r-tree and makes every query a full scan.
// Mostly useful for tests and tiny datasets.
func WithoutIndex() Option { return withoutIndex{} }

type withLogger struct{ log *slog.Logger }

func (w withLogger) apply(o *options) { o.logger = w.log }

func WithLogger(log *slog.Logger) Option { return withLogger{log: log} }

func loadOptions(opts ...Option) options {
	options := options{
		useIndex: true,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o.apply(&options)
	}
	return options
}

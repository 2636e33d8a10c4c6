package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/camden-git/eventmealsbackend/metrics"
	"github.com/camden-git/eventmealsbackend/realtime"
)

type options struct {
	now       func() time.Time
	logger    *zap.Logger
	metrics   *metrics.Recorder
	publisher realtime.Publisher
}

// Option configures the ledger, approval workflow and catalog services
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(o *options) { o.metrics = recorder }
}

// WithPublisher sends order transitions to the realtime feed.
func WithPublisher(publisher realtime.Publisher) Option {
	return func(o *options) { o.publisher = publisher }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) publish(event realtime.Event) {
	if o.publisher != nil {
		o.publisher.Broadcast(event)
	}
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rtpsquire/squire/internal/model"
)

// Job is one reconciliation pass.
type Job interface {
	Name() string
	Run(ctx context.Context) (Summary, error)
}

// Summary counts the units of work a job handled.
type Summary struct {
	Completed int
	Failed    int
	Skipped   int
}

// OrderSink receives every order a job fetched. It is optional.
type OrderSink interface {
	SaveOrders(ctx context.Context, job, account string, orders []model.Order) error
}

// OrderSinkFunc is a function adapter for OrderSink.
type OrderSinkFunc func(ctx context.Context, job, account string, orders []model.Order) error

func (f OrderSinkFunc) SaveOrders(ctx context.Context, job, account string, orders []model.Order) error {
	return f(ctx, job, account, orders)
}

// Option configures a job.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	sink     OrderSink
	location *time.Location
	now      func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		logger:   slog.Default(),
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSink archives fetched orders.
func WithSink(sink OrderSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithLocation sets the time zone of dates written to the sheets.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// save hands orders to the sink. Archive failures never fail the unit.
func (o *options) save(ctx context.Context, job, account string, orders []model.Order) {
	if o.sink == nil || len(orders) == 0 {
		return
	}
	if err := o.sink.SaveOrders(ctx, job, account, orders); err != nil {
		o.logger.Warn("failed to archive orders",
			"job", job,
			"account", account,
			"error", err,
		)
	}
}

// Runner executes jobs one after another.
type Runner struct {
	jobs   []Job
	logger *slog.Logger
}

// NewRunner creates a runner for jobs, run in the given order.
func NewRunner(jobs []Job, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{jobs: jobs, logger: logger}
}

// Run executes every job. A failing job does not stop the ones after it;
// the returned error joins every job error.
func (r *Runner) Run(ctx context.Context) error {
	var errs []error
	for _, job := range r.jobs {
		start := time.Now()
		r.logger.Info("running job", "job", job.Name())

		sum, err := job.Run(ctx)
		if err != nil {
			r.logger.Error("job failed", "job", job.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", job.Name(), err))
			continue
		}

		r.logger.Info("job completed",
			"job", job.Name(),
			"completed", sum.Completed,
			"failed", sum.Failed,
			"skipped", sum.Skipped,
			"duration", time.Since(start),
		)
	}
	return errors.Join(errs...)
}

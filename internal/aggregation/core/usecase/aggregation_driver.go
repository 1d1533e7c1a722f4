package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"panopticon-aggregator/internal/aggregation/core/domain"
	"panopticon-aggregator/internal/aggregation/core/ports"
)

var ErrInvalidDay = errors.New("day must be a UTC midnight")

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Option func(*AggregationDriver)

func WithClock(now func() time.Time) Option {
	return func(d *AggregationDriver) { d.now = now }
}

func WithSleeper(s Sleeper) Option {
	return func(d *AggregationDriver) { d.sleep = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *AggregationDriver) { d.logger = l }
}

// AggregationDriver turns raw check-ins into one aggregate row per day.
//
// The next day to process is always derived from the store (latest
// aggregated day + 1), never remembered between steps, so a crash at any
// point is recovered by simply running again.
type AggregationDriver struct {
	store      ports.AggregateStorePort
	reader     ports.SnapshotReaderPort
	initialDay int64

	now    func() time.Time
	sleep  Sleeper
	logger *slog.Logger
}

func NewAggregationDriver(
	store ports.AggregateStorePort,
	reader ports.SnapshotReaderPort,
	initialDay int64,
	opts ...Option,
) (*AggregationDriver, error) {
	if !domain.IsDayStart(initialDay) {
		return nil, fmt.Errorf("initial day %d: %w", initialDay, ErrInvalidDay)
	}

	d := &AggregationDriver{
		store:      store,
		reader:     reader,
		initialDay: initialDay,
		now:        time.Now,
		sleep:      sleepContext,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NextDay returns the first day that has no aggregate row yet.
func (d *AggregationDriver) NextDay(ctx context.Context) (int64, error) {
	latest, ok, err := d.store.LatestDay(ctx)
	if err != nil {
		return 0, fmt.Errorf("read latest aggregated day: %w", err)
	}
	if !ok {
		return d.initialDay, nil
	}
	return latest + domain.DayLength, nil
}

// AggregateDay computes and persists the aggregate for day. Nothing is
// written unless the final insert succeeds, so a failed call can be retried
// as if it never happened.
func (d *AggregationDriver) AggregateDay(ctx context.Context, day int64) (*domain.DailyAggregate, error) {
	if !domain.IsDayStart(day) {
		return nil, fmt.Errorf("aggregate day %d: %w", day, ErrInvalidDay)
	}

	snaps, err := d.reader.ReadSnapshots(ctx, domain.WindowFor(day))
	if err != nil {
		return nil, fmt.Errorf("read snapshots for %s: %w", domain.FormatDay(day), err)
	}

	agg := domain.Summarize(day, snaps)

	if err := d.store.InsertAggregate(ctx, &agg); err != nil {
		return nil, fmt.Errorf("insert aggregate for %s: %w", domain.FormatDay(day), err)
	}

	return &agg, nil
}

type PassResult struct {
	RunID    string
	FirstDay int64 // first day examined by the pass
	NextDay  int64 // first day still missing when the pass stopped
	Inserted int
}

// CatchUp aggregates every missing day before today's UTC midnight, oldest
// first. It stops at the first failure; days inserted before the failure
// stay committed.
func (d *AggregationDriver) CatchUp(ctx context.Context) (PassResult, error) {
	res := PassResult{RunID: uuid.NewString()}
	log := d.logger.With("run_id", res.RunID)

	today := domain.Today(d.now())

	day, err := d.NextDay(ctx)
	if err != nil {
		return res, err
	}
	res.FirstDay = day
	res.NextDay = day

	log.Info("catch-up pass started",
		"next_day", domain.FormatDay(day),
		"today", domain.FormatDay(today),
	)

	for day < today {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		agg, err := d.AggregateDay(ctx, day)
		if err != nil {
			log.Error("day aggregation failed", "day", domain.FormatDay(day), "error", err)
			return res, err
		}
		res.Inserted++

		log.Debug("day aggregated",
			"day", domain.FormatDay(day),
			"active_homeservers", agg.ActiveHomeservers,
		)

		day, err = d.NextDay(ctx)
		if err != nil {
			return res, err
		}
		res.NextDay = day
	}

	log.Info("catch-up pass finished",
		"inserted", res.Inserted,
		"next_day", domain.FormatDay(res.NextDay),
	)
	return res, nil
}

// Serve runs a catch-up pass, sleeps one day and repeats until ctx is done.
// Failed passes are logged; the same day is retried on the next cycle.
func (d *AggregationDriver) Serve(ctx context.Context) error {
	interval := time.Duration(domain.DayLength) * time.Second

	for {
		if _, err := d.CatchUp(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.logger.Error("catch-up pass failed, retrying next cycle",
				"error", err,
				"retry_in", interval.String(),
			)
		}

		if err := d.sleep(ctx, interval); err != nil {
			return nil
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

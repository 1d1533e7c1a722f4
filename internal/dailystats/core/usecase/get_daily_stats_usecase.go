package usecase

import (
	"context"
	"errors"

	aggdomain "panopticon-aggregator/internal/aggregation/core/domain"
	"panopticon-aggregator/internal/dailystats/core/domain"
	"panopticon-aggregator/internal/dailystats/core/ports"
)

// MaxRangeDays bounds a single range query.
const MaxRangeDays = 366

var (
	ErrInvalidRange  = errors.New("invalid time range")
	ErrRangeTooLarge = errors.New("time range too large")
	ErrInvalidDay    = errors.New("day must be a UTC midnight")
	ErrNotFound      = errors.New("day not aggregated")
)

type RangeInput struct {
	From int64
	To   int64
}

type GetDailyStatsUseCase struct {
	reader ports.DailyStatsReaderPort
}

func NewGetDailyStatsUseCase(reader ports.DailyStatsReaderPort) *GetDailyStatsUseCase {
	return &GetDailyStatsUseCase{reader: reader}
}

// Range validates the half-open interval [From, To) and returns the
// aggregated days inside it, oldest first.
func (uc *GetDailyStatsUseCase) Range(ctx context.Context, in RangeInput) ([]domain.DailyStats, error) {
	if in.From < 0 || in.To <= 0 || in.From >= in.To {
		return nil, ErrInvalidRange
	}
	if in.To-in.From > MaxRangeDays*aggdomain.DayLength {
		return nil, ErrRangeTooLarge
	}

	days, err := uc.reader.QueryRange(ctx, ports.StatsFilter{From: in.From, To: in.To})
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []domain.DailyStats{}
	}
	return days, nil
}

func (uc *GetDailyStatsUseCase) Day(ctx context.Context, day int64) (*domain.DailyStats, error) {
	if !aggdomain.IsDayStart(day) {
		return nil, ErrInvalidDay
	}

	stats, err := uc.reader.GetDay(ctx, day)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, ErrNotFound
	}
	return stats, nil
}

func (uc *GetDailyStatsUseCase) Latest(ctx context.Context) (*domain.DailyStats, error) {
	stats, err := uc.reader.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, ErrNotFound
	}
	return stats, nil
}

func (uc *GetDailyStatsUseCase) Health(ctx context.Context) error {
	return uc.reader.Ping(ctx)
}

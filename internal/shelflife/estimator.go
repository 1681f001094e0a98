package shelflife

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/metrics"
	"github.com/fekuna/pantry-service/internal/model"
)

const (
	DefaultMaxDays = 365
	DefaultDays    = 7
)

// Collaborator is an external source of shelf-life guesses for names no rule
// covers.
type Collaborator interface {
	EstimateDays(ctx context.Context, name string) (int, error)
}

// Estimator maps an item name to a number of days until spoilage.
type Estimator interface {
	Estimate(ctx context.Context, name string) int
}

type Config struct {
	MaxDays     int
	DefaultDays int
	Timeout     time.Duration
}

type estimator struct {
	rules   []Rule
	collab  Collaborator
	cfg     Config
	metrics *metrics.Metrics
	logger  logger.ZapLogger
}

// New builds an estimator over rules. collab may be nil, in which case names
// without a matching rule get the default.
func New(rules []Rule, collab Collaborator, cfg Config, m *metrics.Metrics, log logger.ZapLogger) Estimator {
	if cfg.MaxDays < 1 {
		cfg.MaxDays = DefaultMaxDays
	}
	if cfg.DefaultDays < 1 {
		cfg.DefaultDays = DefaultDays
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &estimator{
		rules:   rules,
		collab:  collab,
		cfg:     cfg,
		metrics: m,
		logger:  log,
	}
}

func (e *estimator) Estimate(ctx context.Context, name string) int {
	if days, ok := Lookup(e.rules, name); ok {
		e.metrics.Estimates.WithLabelValues("rule").Inc()
		return days
	}

	days, err := e.ask(ctx, name)
	if err != nil {
		if !errors.Is(err, model.ErrEstimatorUnavailable) {
			e.logger.Warn("shelf life estimate rejected", zap.String("name", name), zap.Error(err))
		}
		e.metrics.Estimates.WithLabelValues("default").Inc()
		return e.cfg.DefaultDays
	}
	e.metrics.Estimates.WithLabelValues("collaborator").Inc()
	return days
}

func (e *estimator) ask(ctx context.Context, name string) (int, error) {
	if e.collab == nil || model.NormalizeName(name) == "" {
		return 0, model.ErrEstimatorUnavailable
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	days, err := e.collab.EstimateDays(ctx, name)
	if err != nil {
		e.logger.Debug("shelf life collaborator failed", zap.String("name", name), zap.Error(err))
		return 0, model.ErrEstimatorUnavailable
	}
	if days < 1 || days > e.cfg.MaxDays {
		return 0, fmt.Errorf("estimate of %d days outside [1, %d]", days, e.cfg.MaxDays)
	}
	return days, nil
}

// ExpiryFor returns today plus the estimated shelf life as a UTC date.
func ExpiryFor(ctx context.Context, e Estimator, name string, today time.Time) time.Time {
	return model.DateOf(today).AddDate(0, 0, e.Estimate(ctx, name))
}

// Package forecast defines the data structures related to a given forecast and
// includes functions for computing the forecasts of every configured scenario.
package forecast

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/config"
	"github.com/iwvelando/proforma/internal/engine"
)

// Forecast holds all information related to a specific forecast.
type Forecast struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Preset      string                  `json:"preset,omitempty"`
	Sector      string                  `json:"sector,omitempty"`
	Fingerprint string                  `json:"fingerprint"`
	Assumptions assumptions.Assumptions `json:"assumptions"`
	Result      *engine.Result          `json:"result"`
	Analysis    engine.Analysis         `json:"analysis"`
	Duration    time.Duration           `json:"duration"`
}

// GetForecast processes the Forecasts for all active Scenarios. Scenarios are
// computed concurrently and returned in configuration order. The first
// scenario that fails cancels the rest.
func GetForecast(ctx context.Context, logger *zap.Logger, conf config.Configuration) ([]Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var active []config.Scenario
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "forecast.GetForecast"),
			)
			continue
		}
		active = append(active, scenario)
	}

	results := make([]Forecast, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, scenario := range active {
		i, scenario := i, scenario
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := Run(logger, scenario)
			if err != nil {
				return err
			}
			results[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Run resolves and computes a single scenario.
func Run(logger *zap.Logger, scenario config.Scenario) (Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a, err := scenario.Resolve()
	if err != nil {
		return Forecast{}, err
	}
	f, err := Compute(a)
	if err != nil {
		logger.Error("scenario failed",
			zap.String("op", "forecast.Run"),
			zap.String("scenario", scenario.Name),
			zap.Error(err),
		)
		return Forecast{}, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	f.Name = scenario.Name
	f.Preset = scenario.Preset
	f.Sector = scenario.Sector

	logger.Debug("scenario computed",
		zap.String("op", "forecast.Run"),
		zap.String("scenario", f.Name),
		zap.String("id", f.ID),
		zap.Float64("npvProject", f.Result.NPVProject),
		zap.Float64("npvEquity", f.Result.NPVEquity),
		zap.Float64("irrEquity", f.Result.IRREquity.Rate),
		zap.Bool("irrEquityConverged", f.Result.IRREquity.Converged),
		zap.Duration("duration", f.Duration),
	)
	return f, nil
}

// Compute runs the engine on already resolved assumptions and wraps the
// outcome as an unnamed Forecast.
func Compute(a assumptions.Assumptions) (Forecast, error) {
	start := time.Now()
	result, err := engine.Compute(a)
	if err != nil {
		return Forecast{}, err
	}
	fingerprint, err := engine.Fingerprint(a)
	if err != nil {
		return Forecast{}, err
	}

	return Forecast{
		ID:          uuid.NewString(),
		Fingerprint: fingerprint,
		Assumptions: a,
		Result:      result,
		Analysis:    engine.Analyze(result, a),
		Duration:    time.Since(start),
	}, nil
}

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/config"
	"github.com/iwvelando/proforma/internal/engine"
	"github.com/iwvelando/proforma/internal/forecast"
)

// TestPerformanceBaseline times the full configuration-to-forecast path.
func TestPerformanceBaseline(t *testing.T) {
	logger := zap.NewNop()

	start := time.Now()
	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	loadTime := time.Since(start)

	start = time.Now()
	results, err := forecast.GetForecast(context.Background(), logger, *conf)
	if err != nil {
		t.Fatalf("GetForecast failed: %v", err)
	}
	forecastTime := time.Since(start)

	t.Logf("Performance metrics:")
	t.Logf("  Load config: %v", loadTime)
	t.Logf("  Generate forecast: %v", forecastTime)

	if total := loadTime + forecastTime; total > 5*time.Second {
		t.Errorf("Total processing time %v exceeds 5 second threshold", total)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
}

// TestManyScenarios runs a large configuration through the parallel runner
// and checks that order and results survive.
func TestManyScenarios(t *testing.T) {
	const count = 200

	sectors := assumptions.Sectors()
	presets := assumptions.Presets()
	conf := config.Configuration{}
	for i := 0; i < count; i++ {
		conf.Scenarios = append(conf.Scenarios, config.Scenario{
			Name:   fmt.Sprintf("scenario %03d", i),
			Active: true,
			Sector: sectors[i%len(sectors)].Key,
			Preset: presets[i%len(presets)],
			Assumptions: map[string]interface{}{
				"initialRevenue": 1000000.0 * float64(i+1),
			},
		})
	}

	start := time.Now()
	results, err := forecast.GetForecast(context.Background(), zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("GetForecast failed: %v", err)
	}
	t.Logf("Computed %d scenarios in %v", count, time.Since(start))

	if len(results) != count {
		t.Fatalf("Expected %d results, got %d", count, len(results))
	}
	for i, f := range results {
		if f.Name != conf.Scenarios[i].Name {
			t.Fatalf("Result %d out of order: %s", i, f.Name)
		}
		if f.Result.Rows[1].Revenue != f.Assumptions.InitialRevenue {
			t.Errorf("%s: year 1 revenue %.2f, expected %.2f", f.Name, f.Result.Rows[1].Revenue, f.Assumptions.InitialRevenue)
		}
	}
}

// TestRepeatedComputationsAreStable runs the same assumptions repeatedly and
// expects bit-identical results.
func TestRepeatedComputationsAreStable(t *testing.T) {
	a := assumptions.Default()
	first, err := engine.Compute(a)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	for i := 0; i < 50; i++ {
		again, err := engine.Compute(a)
		if err != nil {
			t.Fatalf("Compute failed on iteration %d: %v", i, err)
		}
		if again.NPVEquity != first.NPVEquity || again.NPVProject != first.NPVProject || again.MOIC != first.MOIC {
			t.Fatalf("Iteration %d diverged", i)
		}
	}
}

func BenchmarkCompute(b *testing.B) {
	a := assumptions.Default()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Compute(a); err != nil {
			b.Fatal(err)
		}
	}
}

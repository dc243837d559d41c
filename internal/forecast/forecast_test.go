package forecast

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/config"
	"github.com/iwvelando/proforma/internal/engine"
)

func TestGetForecast(t *testing.T) {
	logger := zap.NewNop()

	conf, err := config.LoadConfiguration("../../test/test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	results, err := GetForecast(context.Background(), logger, *conf)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}

	expected := []string{"reference case", "saas upside", "retail downside"}
	if len(results) != len(expected) {
		t.Fatalf("Expected %d forecasts, got %d", len(expected), len(results))
	}
	for i, name := range expected {
		f := results[i]
		if f.Name != name {
			t.Errorf("Forecast %d: expected %s, got %s", i, name, f.Name)
		}
		if _, err := uuid.Parse(f.ID); err != nil {
			t.Errorf("Forecast %s has invalid id %q", f.Name, f.ID)
		}
		if f.Result == nil || len(f.Result.Rows) == 0 {
			t.Errorf("Forecast %s has no result", f.Name)
		}
		if f.Fingerprint == "" {
			t.Errorf("Forecast %s has no fingerprint", f.Name)
		}
	}

	if results[1].Sector != "tech_saas" || results[1].Preset != "optimistic" {
		t.Errorf("Expected sector and preset to be carried, got %s/%s", results[1].Sector, results[1].Preset)
	}
}

func TestGetForecastMatchesEngine(t *testing.T) {
	conf := config.Configuration{Scenarios: []config.Scenario{{Name: "defaults", Active: true}}}

	results, err := GetForecast(context.Background(), nil, conf)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}

	a := assumptions.Default()
	expected, err := engine.Compute(a)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if results[0].Result.NPVEquity != expected.NPVEquity {
		t.Errorf("Expected npvEquity %.2f, got %.2f", expected.NPVEquity, results[0].Result.NPVEquity)
	}
	if results[0].Analysis != engine.Analyze(expected, a) {
		t.Errorf("Analysis does not match the engine's")
	}
}

func TestGetForecastInvalidScenario(t *testing.T) {
	conf := config.Configuration{Scenarios: []config.Scenario{
		{Name: "fine", Active: true},
		{Name: "broken", Active: true, Assumptions: map[string]interface{}{"wacc": 0.01}},
	}}

	_, err := GetForecast(context.Background(), zap.NewNop(), conf)
	if !errors.Is(err, assumptions.ErrInvalidAssumptions) {
		t.Errorf("Expected ErrInvalidAssumptions, got %v", err)
	}
}

func TestGetForecastSkipsInactive(t *testing.T) {
	conf := config.Configuration{Scenarios: []config.Scenario{
		{Name: "off", Active: false, Assumptions: map[string]interface{}{"wacc": 0.01}},
	}}

	results, err := GetForecast(context.Background(), zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no forecasts, got %d", len(results))
	}
}

func TestGetForecastCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conf := config.Configuration{Scenarios: []config.Scenario{{Name: "defaults", Active: true}}}
	_, err := GetForecast(ctx, zap.NewNop(), conf)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestCompute(t *testing.T) {
	a := assumptions.Default()
	first, err := Compute(a)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	second, err := Compute(a)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if first.ID == second.ID {
		t.Errorf("Expected distinct ids per computation")
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("Expected equal fingerprints for equal assumptions")
	}
}

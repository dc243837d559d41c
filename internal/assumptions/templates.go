package assumptions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/proforma/pkg/constants"
)

// DefaultSector is used when a scenario names a preset but no sector.
const DefaultSector = "custom"

// Preset is the operating profile a scenario preset applies.
type Preset struct {
	RevenueGrowthPath []float64 `json:"revenueGrowthPath" yaml:"revenueGrowthPath"`
	CogsPercent       float64   `json:"cogsPercent" yaml:"cogsPercent"`
	OpexPercent       float64   `json:"opexPercent" yaml:"opexPercent"`
}

// SectorTemplate groups the base, optimistic and pessimistic presets of an
// industry.
type SectorTemplate struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Base        Preset `json:"base" yaml:"base"`
	Optimistic  Preset `json:"optimistic" yaml:"optimistic"`
	Pessimistic Preset `json:"pessimistic" yaml:"pessimistic"`
}

// Preset returns the named preset of the template.
func (t SectorTemplate) Preset(name string) (Preset, error) {
	switch CanonicalPreset(name) {
	case constants.PresetBase:
		return t.Base, nil
	case constants.PresetOptimistic:
		return t.Optimistic, nil
	case constants.PresetPessimistic:
		return t.Pessimistic, nil
	default:
		return Preset{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidAssumptions, name)
	}
}

// CanonicalPreset normalizes a preset name; empty means base.
func CanonicalPreset(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return constants.PresetBase
	}
	return trimmed
}

// Presets lists the supported preset names.
func Presets() []string {
	return []string{constants.PresetBase, constants.PresetOptimistic, constants.PresetPessimistic}
}

// LookupSector returns the template registered under key.
func LookupSector(key string) (SectorTemplate, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		k = DefaultSector
	}
	t, ok := sectorTemplates()[k]
	return t, ok
}

// Sectors lists every template sorted by key.
func Sectors() []SectorTemplate {
	templates := sectorTemplates()
	out := make([]SectorTemplate, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ApplyTemplate returns a copy of a with the growth path and margins of the
// sector's preset. An empty sector selects the generic profile.
func ApplyTemplate(a Assumptions, sector, preset string) (Assumptions, error) {
	t, ok := LookupSector(sector)
	if !ok {
		return a, fmt.Errorf("%w: unknown sector %q", ErrInvalidAssumptions, sector)
	}
	p, err := t.Preset(preset)
	if err != nil {
		return a, err
	}

	out := a.Clone()
	out.RevenueGrowthPath = append([]float64(nil), p.RevenueGrowthPath...)
	out.CogsPercent = p.CogsPercent
	out.OpexPercent = p.OpexPercent
	return out, nil
}

func sectorTemplates() map[string]SectorTemplate {
	list := []SectorTemplate{
		{
			Key:         "custom",
			Name:        "Custom",
			Description: "Generic profile; tune every parameter by hand",
			Base:        Preset{[]float64{0.15, 0.12, 0.10, 0.08, 0.06, 0.05, 0.045, 0.045, 0.045, 0.045}, 0.40, 0.25},
			Optimistic:  Preset{[]float64{0.25, 0.20, 0.15, 0.10, 0.08, 0.06, 0.05, 0.05, 0.05, 0.05}, 0.35, 0.22},
			Pessimistic: Preset{[]float64{0.05, 0.04, 0.04, 0.03, 0.03, 0.02, 0.02, 0.02, 0.02, 0.02}, 0.48, 0.30},
		},
		{
			Key:         "healthcare",
			Name:        "Healthcare (hospitals and clinics)",
			Description: "Stable growth, moderate margins, high predictability",
			Base:        Preset{[]float64{0.12, 0.10, 0.09, 0.08, 0.07, 0.06, 0.05, 0.05, 0.05, 0.05}, 0.40, 0.28},
			Optimistic:  Preset{[]float64{0.18, 0.15, 0.12, 0.10, 0.09, 0.08, 0.07, 0.07, 0.07, 0.07}, 0.35, 0.25},
			Pessimistic: Preset{[]float64{0.06, 0.05, 0.05, 0.04, 0.04, 0.03, 0.03, 0.03, 0.03, 0.03}, 0.45, 0.32},
		},
		{
			Key:         "tech_saas",
			Name:        "Technology / SaaS",
			Description: "Fast growth, high margins, scalable",
			Base:        Preset{[]float64{0.50, 0.40, 0.30, 0.25, 0.20, 0.15, 0.12, 0.10, 0.10, 0.10}, 0.15, 0.35},
			Optimistic:  Preset{[]float64{0.80, 0.60, 0.45, 0.35, 0.28, 0.22, 0.18, 0.15, 0.15, 0.15}, 0.12, 0.32},
			Pessimistic: Preset{[]float64{0.25, 0.20, 0.15, 0.12, 0.10, 0.08, 0.07, 0.06, 0.06, 0.06}, 0.20, 0.40},
		},
		{
			Key:         "retail",
			Name:        "Retail (stores and e-commerce)",
			Description: "Moderate growth, thin margins, strong competition",
			Base:        Preset{[]float64{0.15, 0.12, 0.10, 0.08, 0.07, 0.06, 0.05, 0.05, 0.05, 0.05}, 0.65, 0.20},
			Optimistic:  Preset{[]float64{0.25, 0.20, 0.15, 0.12, 0.10, 0.08, 0.07, 0.07, 0.07, 0.07}, 0.60, 0.18},
			Pessimistic: Preset{[]float64{0.08, 0.06, 0.05, 0.04, 0.03, 0.03, 0.02, 0.02, 0.02, 0.02}, 0.70, 0.23},
		},
		{
			Key:         "manufacturing",
			Name:        "Manufacturing",
			Description: "Conservative growth, average margins, capital intensive",
			Base:        Preset{[]float64{0.10, 0.08, 0.07, 0.06, 0.05, 0.045, 0.04, 0.04, 0.04, 0.04}, 0.55, 0.18},
			Optimistic:  Preset{[]float64{0.15, 0.12, 0.10, 0.09, 0.08, 0.07, 0.06, 0.06, 0.06, 0.06}, 0.50, 0.16},
			Pessimistic: Preset{[]float64{0.05, 0.04, 0.03, 0.03, 0.02, 0.02, 0.02, 0.02, 0.02, 0.02}, 0.60, 0.22},
		},
		{
			Key:         "food_beverage",
			Name:        "Food and beverage",
			Description: "Stable growth, average margins, moderate seasonality",
			Base:        Preset{[]float64{0.12, 0.10, 0.09, 0.08, 0.07, 0.06, 0.05, 0.05, 0.05, 0.05}, 0.50, 0.22},
			Optimistic:  Preset{[]float64{0.18, 0.15, 0.12, 0.10, 0.09, 0.08, 0.07, 0.07, 0.07, 0.07}, 0.45, 0.20},
			Pessimistic: Preset{[]float64{0.06, 0.05, 0.04, 0.04, 0.03, 0.03, 0.03, 0.03, 0.03, 0.03}, 0.55, 0.25},
		},
		{
			Key:         "education",
			Name:        "Education",
			Description: "Predictable growth, good margins, low cost of goods",
			Base:        Preset{[]float64{0.15, 0.12, 0.10, 0.09, 0.08, 0.07, 0.06, 0.06, 0.06, 0.06}, 0.25, 0.40},
			Optimistic:  Preset{[]float64{0.22, 0.18, 0.15, 0.12, 0.10, 0.09, 0.08, 0.08, 0.08, 0.08}, 0.22, 0.38},
			Pessimistic: Preset{[]float64{0.08, 0.06, 0.05, 0.05, 0.04, 0.04, 0.04, 0.04, 0.04, 0.04}, 0.28, 0.45},
		},
		{
			Key:         "financial_services",
			Name:        "Financial services",
			Description: "Highly scalable, high margins, low cost of goods",
			Base:        Preset{[]float64{0.20, 0.18, 0.15, 0.12, 0.10, 0.08, 0.07, 0.07, 0.07, 0.07}, 0.20, 0.35},
			Optimistic:  Preset{[]float64{0.35, 0.28, 0.22, 0.18, 0.15, 0.12, 0.10, 0.10, 0.10, 0.10}, 0.18, 0.32},
			Pessimistic: Preset{[]float64{0.10, 0.08, 0.07, 0.06, 0.05, 0.05, 0.04, 0.04, 0.04, 0.04}, 0.25, 0.40},
		},
		{
			Key:         "energy",
			Name:        "Energy and utilities",
			Description: "Low growth, stable margins, regulated",
			Base:        Preset{[]float64{0.08, 0.07, 0.06, 0.05, 0.05, 0.045, 0.04, 0.04, 0.04, 0.04}, 0.45, 0.25},
			Optimistic:  Preset{[]float64{0.12, 0.10, 0.09, 0.08, 0.07, 0.06, 0.06, 0.06, 0.06, 0.06}, 0.42, 0.23},
			Pessimistic: Preset{[]float64{0.04, 0.03, 0.03, 0.02, 0.02, 0.02, 0.02, 0.02, 0.02, 0.02}, 0.50, 0.28},
		},
		{
			Key:         "construction",
			Name:        "Construction",
			Description: "Cyclical, average margins, capital intensive",
			Base:        Preset{[]float64{0.12, 0.10, 0.08, 0.07, 0.06, 0.05, 0.045, 0.045, 0.045, 0.045}, 0.60, 0.18},
			Optimistic:  Preset{[]float64{0.20, 0.15, 0.12, 0.10, 0.09, 0.08, 0.07, 0.07, 0.07, 0.07}, 0.55, 0.16},
			Pessimistic: Preset{[]float64{0.05, 0.04, 0.03, 0.03, 0.02, 0.02, 0.02, 0.02, 0.02, 0.02}, 0.65, 0.22},
		},
	}

	templates := make(map[string]SectorTemplate, len(list))
	for _, t := range list {
		templates[t.Key] = t
	}
	return templates
}

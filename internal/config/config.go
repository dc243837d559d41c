// Package config defines the data structures related to configuration and
// includes functions for loading it and resolving scenarios into assumptions.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/pkg/constants"
	"github.com/iwvelando/proforma/pkg/validation"
)

// Configuration holds all configuration for proforma.
type Configuration struct {
	Scenarios []Scenario    `yaml:"scenarios"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" json:"format,omitempty"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" json:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// Scenario is one named set of assumptions. Assumptions start from the
// defaults, then take the sector template's preset, then the explicit
// overrides.
type Scenario struct {
	Name        string                 `yaml:"name"`
	Active      bool                   `yaml:"active"`
	Preset      string                 `yaml:"preset,omitempty"`
	Sector      string                 `yaml:"sector,omitempty"`
	Assumptions map[string]interface{} `yaml:"assumptions,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ActiveScenarios returns the active scenarios in configuration order.
func (c *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, s := range c.Scenarios {
		if s.Active {
			active = append(active, s)
		}
	}
	return active
}

// Resolve builds the assumptions of the scenario. The result is not
// validated.
func (s Scenario) Resolve() (assumptions.Assumptions, error) {
	a := assumptions.Default()
	if s.Sector != "" || s.Preset != "" {
		var err error
		a, err = assumptions.ApplyTemplate(a, s.Sector, s.Preset)
		if err != nil {
			return a, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}

	a, err := assumptions.Merge(a, s.Assumptions)
	if err != nil {
		return a, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return a, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil && c.Output.Format != "" {
		warnings = append(warnings, err.Error())
	}

	names := make([]string, 0, len(c.Scenarios))
	for _, s := range c.Scenarios {
		names = append(names, s.Name)
	}
	warnings = append(warnings, validation.ValidateScenarioNames(names)...)

	active := c.ActiveScenarios()
	if len(active) == 0 {
		warnings = append(warnings, "No active scenarios configured")
	}

	for _, s := range active {
		if s.Sector != "" {
			if _, ok := assumptions.LookupSector(s.Sector); !ok {
				warnings = append(warnings, fmt.Sprintf("Scenario '%s' uses unknown sector '%s'", s.Name, s.Sector))
				continue
			}
		}

		a, err := s.Resolve()
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		if err := a.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' will fail: %s", s.Name, err))
		}

		for _, w := range []string{
			validation.ValidateGrowthPath(s.Name, a.RevenueGrowthPath, constants.Horizon),
			validation.ValidateMargins(s.Name, a.CogsPercent, a.OpexPercent),
			validation.ValidateDiscountRates(s.Name, a.WACC, a.CostOfEquity),
		} {
			if w != "" {
				warnings = append(warnings, w)
			}
		}
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}

// Package constants provides shared constants for the proforma application.
package constants

// Projection constants
const (
	// Horizon is the number of explicitly projected years. Year 0 is the
	// investment year, so a projection holds Horizon+1 rows.
	Horizon = 10

	// DefaultGrowthRate is applied when the growth path has no entry for a year.
	DefaultGrowthRate = 0.04

	// DaysPerYear is the commercial-year convention used for working capital days.
	DaysPerYear = 360

	// LossOffsetCap is the share of a profitable year's pre-tax profit that
	// accumulated tax losses may offset.
	LossOffsetCap = 0.30

	// MaintenanceDepreciationYears is the straight-line life assumed for
	// ongoing maintenance capex.
	MaintenanceDepreciationYears = 5

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// IRR solver defaults
const (
	// IRRInitialGuess is the first rate tried by the Newton-Raphson solver.
	IRRInitialGuess = 0.10

	// IRRTolerance stops iteration once successive rates differ by less.
	IRRTolerance = 1e-6

	// IRRMaxIterations caps the Newton-Raphson loop.
	IRRMaxIterations = 1000

	// IRRMinDerivative is the smallest derivative magnitude the solver divides by.
	IRRMinDerivative = 1e-12
)

// Viability thresholds
const (
	// StrongMOIC is the multiple above which equity returns are considered strong.
	StrongMOIC = 2.0
)

// Scenario presets
const (
	PresetBase        = "base"
	PresetOptimistic  = "optimistic"
	PresetPessimistic = "pessimistic"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the ';'-delimited export format
	OutputFormatCSV = "csv"

	// CSVDelimiter separates fields in exported projections.
	CSVDelimiter = ';'
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. PROFORMA_OUTPUT_FORMAT.
	EnvPrefix = "PROFORMA"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultCacheSize is the number of results the in-memory cache keeps.
	DefaultCacheSize = 512

	// DefaultCacheTTLSeconds is the lifetime of cached results, in seconds.
	DefaultCacheTTLSeconds = 3600

	// DefaultRateLimitRequests is the per-IP request budget per window.
	DefaultRateLimitRequests = 120

	// DefaultRateLimitWindowSeconds is the rate limit window length.
	DefaultRateLimitWindowSeconds = 60
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

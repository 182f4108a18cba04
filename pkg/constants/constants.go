// Package constants provides shared constants for the finance-montecarlo application.
package constants

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// CompoundingMonthly is the only supported compounding mode
	CompoundingMonthly = "monthly"

	// DynamicAssetType labels assets created on first reference by a deposit
	DynamicAssetType = "dynamic"
)

// Monte Carlo defaults
const (
	// DefaultIterations is used when a Monte Carlo config omits iterations
	DefaultIterations = 1000

	// DefaultMaxIterations is the configured ceiling when none is supplied
	DefaultMaxIterations = 10000

	// HardMaxIterations is the absolute ceiling; no configuration can exceed it
	HardMaxIterations = 100000

	// DefaultTargetSurvivalMonths is 25 years
	DefaultTargetSurvivalMonths = 300

	// DefaultTargetSuccessRate is the success rate a plan is expected to reach
	DefaultTargetSuccessRate = 0.85

	// DefaultRiskConfidence is the confidence level for VaR and CVaR
	DefaultRiskConfidence = 0.95

	// DefaultBatchSize is the number of trials dispatched between progress reports
	DefaultBatchSize = 100

	// DefaultFailureThreshold is the failed-trial fraction that aborts a run
	DefaultFailureThreshold = 0.25

	// DefaultTrialTimeoutSeconds bounds a single trial
	DefaultTrialTimeoutSeconds = 5
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Run mode constants
const (
	// ModeSimulate runs the deterministic ledger once
	ModeSimulate = "simulate"

	// ModeMonteCarlo runs the Monte Carlo analysis
	ModeMonteCarlo = "montecarlo"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Validation constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"github.com/iwvelando/finance-montecarlo/pkg/datetime"
	"github.com/iwvelando/finance-montecarlo/pkg/montecarlo"
	"github.com/iwvelando/finance-montecarlo/pkg/scenario"
	"github.com/iwvelando/finance-montecarlo/pkg/validation"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// keyDelimiter replaces viper's "." so dotted map keys, such as asset types in
// a returns map, survive decoding.
const keyDelimiter = "::"

// Configuration holds all configuration for finance-montecarlo.
type Configuration struct {
	Scenario   scenario.Scenario `mapstructure:"scenario" yaml:"scenario"`
	MonteCarlo MonteCarloConfig  `mapstructure:"montecarlo" yaml:"montecarlo,omitempty"`
	Logging    LoggingConfig     `mapstructure:"logging" yaml:"logging,omitempty"`
	Output     OutputConfig      `mapstructure:"output" yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`             // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`           // json, console
	OutputFile string `mapstructure:"output_file" yaml:"output_file,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
	Mode   string `mapstructure:"mode" yaml:"mode,omitempty"`     // simulate, montecarlo
}

// MonteCarloConfig is the run configuration plus the variable ranges to
// sample each trial.
type MonteCarloConfig struct {
	montecarlo.Config `mapstructure:",squash" yaml:",inline"`
	VariableRanges    []VariableRange `mapstructure:"variable_ranges" yaml:"variable_ranges,omitempty"`
}

// VariableRange samples the scenario field at Path from a distribution.
type VariableRange struct {
	Path                    string `mapstructure:"path" yaml:"path"`
	montecarlo.Distribution `mapstructure:",squash" yaml:",inline"`
}

// Ranges returns the variable ranges keyed by path, rejecting duplicates.
func (m MonteCarloConfig) Ranges() (map[string]montecarlo.Distribution, error) {
	ranges := make(map[string]montecarlo.Distribution, len(m.VariableRanges))
	for _, vr := range m.VariableRanges {
		path := strings.TrimSpace(vr.Path)
		if path == "" {
			return nil, fmt.Errorf("variable range with type %q has no path", vr.Type)
		}
		if _, ok := ranges[path]; ok {
			return nil, fmt.Errorf("variable range %s is defined more than once", path)
		}
		ranges[path] = vr.Distribution
	}
	return ranges, nil
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
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigType("yml")
	v.SetEnvPrefix("FINANCE_MONTECARLO")
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	v.SetDefault("output"+keyDelimiter+"format", constants.OutputFormatPretty)
	v.SetDefault("output"+keyDelimiter+"mode", constants.ModeSimulate)
	v.SetDefault("logging"+keyDelimiter+"level", "info")
	v.SetDefault("logging"+keyDelimiter+"format", "console")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.normalizeTypes()
	return &configuration, nil
}

// normalizeTypes lowercases asset types. Config keys are case-insensitive, so
// the type keys of returns maps arrive lowercased and asset types must match.
func (conf *Configuration) normalizeTypes() {
	for i := range conf.Scenario.Assets {
		conf.Scenario.Assets[i].Type = strings.ToLower(conf.Scenario.Assets[i].Type)
	}
	for i := range conf.Scenario.RateSchedules {
		conf.Scenario.RateSchedules[i].Type = strings.ToLower(conf.Scenario.RateSchedules[i].Type)
	}
}

// ResolveDates fills an unspecified plan start date with the current month
// and checks the format of a specified one.
func (conf *Configuration) ResolveDates() error {
	return conf.ResolveDatesWithFixedTime(time.Now())
}

// ResolveDatesWithFixedTime resolves dates using a fixed time.
func (conf *Configuration) ResolveDatesWithFixedTime(fixedTime time.Time) error {
	plan := conf.Scenario.Plan
	if plan == nil {
		return nil
	}
	if plan.StartDate == "" {
		plan.StartDate = datetime.CurrentMonth(fixedTime)
		return nil
	}
	if err := datetime.ValidateMonth(plan.StartDate); err != nil {
		return fmt.Errorf("invalid plan start_date %q: %w", plan.StartDate, err)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	warnings := validation.ScenarioWarnings(c.Scenario)

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		warnings = append(warnings, fmt.Sprintf("Output format: %v - falling back to %s", err, constants.OutputFormatPretty))
	}
	if err := validation.ValidateMode(c.Output.Mode); err != nil {
		warnings = append(warnings, fmt.Sprintf("Output mode: %v - falling back to %s", err, constants.ModeSimulate))
	}

	if c.Output.Mode == constants.ModeMonteCarlo && len(c.MonteCarlo.VariableRanges) == 0 && c.MonteCarlo.ReturnModel == nil {
		warnings = append(warnings, "Monte Carlo mode has no variable ranges and no return model - every trial will be identical")
	}

	return warnings
}

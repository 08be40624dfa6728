package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Overrides are environment-variable knobs applied on top of file
// configuration, useful for shrinking runs in CI or redirecting output
// without editing grid files. Unset variables leave the model untouched.
type Overrides struct {
	OutputDir      *string `env:"RLOP_OUTPUT_DIR"`
	Repetitions    *int    `env:"RLOP_REPETITIONS"`
	TotalTimesteps *int    `env:"RLOP_TOTAL_TIMESTEPS"`
	NumEnvs        *int    `env:"RLOP_NUM_ENVS"`
	EvalEpisodes   *int    `env:"RLOP_EVAL_EPISODES"`
	SeedBase       *int64  `env:"RLOP_SEED"`
}

// ApplyOverrides parses the process environment and applies any set
// overrides to every experiment in the model.
func ApplyOverrides(m *Model) error {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}
	for _, e := range m.Experiments {
		if o.OutputDir != nil {
			e.OutputDir = *o.OutputDir
		}
		if o.Repetitions != nil {
			e.Repetitions = *o.Repetitions
		}
		if o.TotalTimesteps != nil {
			e.TotalTimesteps = *o.TotalTimesteps
		}
		if o.NumEnvs != nil {
			e.NumEnvs = *o.NumEnvs
		}
		if o.EvalEpisodes != nil {
			e.EvalEpisodes = *o.EvalEpisodes
		}
		if o.SeedBase != nil {
			e.SeedBase = *o.SeedBase
		}
	}
	return nil
}

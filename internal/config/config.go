// Package config holds the format-agnostic experiment model. Loaders (HCL
// today) translate their file formats into this model, and environment
// variable overrides are applied on top, so the rest of the application
// never touches a parser.
package config

import (
	"context"
	"errors"
	"fmt"
)

// Model is the full set of experiments loaded from configuration.
type Model struct {
	Experiments []*Experiment
}

// Loader translates configuration files at the given paths into the model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Experiment describes one batch of independent training runs: the task, the
// algorithm, how many repetitions to perform and where results go.
type Experiment struct {
	Name           string
	EnvID          string
	AlgoID         string
	Repetitions    int
	TotalTimesteps int
	NumEnvs        int
	EvalEpisodes   int
	SeedBase       int64
	OutputDir      string

	PPO PPOParams
}

// PPOParams are the algorithm hyperparameters. The zero value is not usable;
// start from DefaultPPO.
type PPOParams struct {
	LearningRate       float64
	RolloutSteps       int // environment steps collected per env before each update
	BatchSize          int
	Epochs             int
	Gamma              float64
	GAELambda          float64
	ClipRange          float64
	NormalizeAdvantage bool
	EntropyCoef        float64
	ValueCoef          float64
	MaxGradNorm        float64 // <= 0 disables clipping
	TargetKL           float64 // <= 0 disables the early-stop check
	HiddenSizes        []int
}

// DefaultPPO returns the hyperparameters used by the reference lunar-lander
// experiments.
func DefaultPPO() PPOParams {
	return PPOParams{
		LearningRate:       3e-4,
		RolloutSteps:       1024,
		BatchSize:          64,
		Epochs:             4,
		Gamma:              0.99,
		GAELambda:          0.98,
		ClipRange:          0.2,
		NormalizeAdvantage: false,
		EntropyCoef:        0.01,
		ValueCoef:          0.1,
		MaxGradNorm:        0.5,
		TargetKL:           0,
		HiddenSizes:        []int{64, 64},
	}
}

// DefaultExperiment returns an experiment with the reference defaults
// applied; loaders fill in the fields their files provide.
func DefaultExperiment() *Experiment {
	return &Experiment{
		EnvID:          "lunarlander",
		AlgoID:         "ppo",
		Repetitions:    50,
		TotalTimesteps: 1_000_000,
		NumEnvs:        16,
		EvalEpisodes:   100,
		SeedBase:       0,
		OutputDir:      "data",
		PPO:            DefaultPPO(),
	}
}

// Validate reports the first structural problem with the experiment.
func (e *Experiment) Validate() error {
	switch {
	case e.Name == "":
		return errors.New("experiment name must not be empty")
	case e.EnvID == "":
		return fmt.Errorf("experiment %q: environment id must not be empty", e.Name)
	case e.AlgoID == "":
		return fmt.Errorf("experiment %q: algorithm id must not be empty", e.Name)
	case e.Repetitions <= 0:
		return fmt.Errorf("experiment %q: repetitions must be positive", e.Name)
	case e.TotalTimesteps <= 0:
		return fmt.Errorf("experiment %q: total_timesteps must be positive", e.Name)
	case e.NumEnvs <= 0:
		return fmt.Errorf("experiment %q: num_envs must be positive", e.Name)
	case e.EvalEpisodes <= 0:
		return fmt.Errorf("experiment %q: eval_episodes must be positive", e.Name)
	case e.OutputDir == "":
		return fmt.Errorf("experiment %q: output_dir must not be empty", e.Name)
	}
	if err := e.PPO.validate(); err != nil {
		return fmt.Errorf("experiment %q: %w", e.Name, err)
	}
	return nil
}

func (p *PPOParams) validate() error {
	switch {
	case p.LearningRate <= 0:
		return errors.New("ppo: learning_rate must be positive")
	case p.RolloutSteps <= 0:
		return errors.New("ppo: rollout_steps must be positive")
	case p.BatchSize <= 0:
		return errors.New("ppo: batch_size must be positive")
	case p.Epochs <= 0:
		return errors.New("ppo: epochs must be positive")
	case p.Gamma <= 0 || p.Gamma > 1:
		return errors.New("ppo: gamma must be in (0, 1]")
	case p.GAELambda < 0 || p.GAELambda > 1:
		return errors.New("ppo: gae_lambda must be in [0, 1]")
	case p.ClipRange <= 0:
		return errors.New("ppo: clip_range must be positive")
	case len(p.HiddenSizes) == 0:
		return errors.New("ppo: hidden_sizes must not be empty")
	}
	return nil
}

// Validate checks every experiment in the model and that names are unique.
func (m *Model) Validate() error {
	if len(m.Experiments) == 0 {
		return errors.New("no experiments defined")
	}
	seen := make(map[string]bool, len(m.Experiments))
	for _, e := range m.Experiments {
		if err := e.Validate(); err != nil {
			return err
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate experiment name %q", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExperiment() *Experiment {
	e := DefaultExperiment()
	e.Name = "test"
	return e
}

func TestDefaultsMatchReferenceSetup(t *testing.T) {
	e := DefaultExperiment()
	assert.Equal(t, "lunarlander", e.EnvID)
	assert.Equal(t, "ppo", e.AlgoID)
	assert.Equal(t, 50, e.Repetitions)
	assert.Equal(t, 1_000_000, e.TotalTimesteps)
	assert.Equal(t, 16, e.NumEnvs)
	assert.Equal(t, 100, e.EvalEpisodes)

	p := e.PPO
	assert.Equal(t, 3e-4, p.LearningRate)
	assert.Equal(t, 1024, p.RolloutSteps)
	assert.Equal(t, 64, p.BatchSize)
	assert.Equal(t, 4, p.Epochs)
	assert.Equal(t, 0.99, p.Gamma)
	assert.Equal(t, 0.98, p.GAELambda)
	assert.Equal(t, 0.2, p.ClipRange)
	assert.False(t, p.NormalizeAdvantage)
	assert.Equal(t, 0.01, p.EntropyCoef)
	assert.Equal(t, 0.1, p.ValueCoef)
	assert.Equal(t, 0.5, p.MaxGradNorm)
	assert.Equal(t, []int{64, 64}, p.HiddenSizes)
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validExperiment().Validate())
}

func TestValidateRejectsBrokenFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Experiment)
	}{
		{"empty name", func(e *Experiment) { e.Name = "" }},
		{"empty env", func(e *Experiment) { e.EnvID = "" }},
		{"empty algo", func(e *Experiment) { e.AlgoID = "" }},
		{"zero repetitions", func(e *Experiment) { e.Repetitions = 0 }},
		{"negative timesteps", func(e *Experiment) { e.TotalTimesteps = -1 }},
		{"zero envs", func(e *Experiment) { e.NumEnvs = 0 }},
		{"zero eval episodes", func(e *Experiment) { e.EvalEpisodes = 0 }},
		{"empty output dir", func(e *Experiment) { e.OutputDir = "" }},
		{"zero learning rate", func(e *Experiment) { e.PPO.LearningRate = 0 }},
		{"zero rollout steps", func(e *Experiment) { e.PPO.RolloutSteps = 0 }},
		{"bad gamma", func(e *Experiment) { e.PPO.Gamma = 1.5 }},
		{"bad lambda", func(e *Experiment) { e.PPO.GAELambda = -0.1 }},
		{"no hidden sizes", func(e *Experiment) { e.PPO.HiddenSizes = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validExperiment()
			tc.mutate(e)
			assert.Error(t, e.Validate())
		})
	}
}

func TestModelValidateRejectsDuplicateNames(t *testing.T) {
	m := &Model{Experiments: []*Experiment{validExperiment(), validExperiment()}}
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestModelValidateRejectsEmptyModel(t *testing.T) {
	require.Error(t, (&Model{}).Validate())
}

func TestApplyOverrides(t *testing.T) {
	t.Setenv("RLOP_REPETITIONS", "3")
	t.Setenv("RLOP_TOTAL_TIMESTEPS", "2048")
	t.Setenv("RLOP_OUTPUT_DIR", "/tmp/elsewhere")
	t.Setenv("RLOP_SEED", "99")

	m := &Model{Experiments: []*Experiment{validExperiment()}}
	require.NoError(t, ApplyOverrides(m))

	e := m.Experiments[0]
	assert.Equal(t, 3, e.Repetitions)
	assert.Equal(t, 2048, e.TotalTimesteps)
	assert.Equal(t, "/tmp/elsewhere", e.OutputDir)
	assert.Equal(t, int64(99), e.SeedBase)
	// Untouched variables keep their file values.
	assert.Equal(t, 16, e.NumEnvs)
}

func TestApplyOverridesNoEnvIsNoop(t *testing.T) {
	m := &Model{Experiments: []*Experiment{validExperiment()}}
	before := *m.Experiments[0]
	require.NoError(t, ApplyOverrides(m))
	assert.Equal(t, before.Repetitions, m.Experiments[0].Repetitions)
	assert.Equal(t, before.OutputDir, m.Experiments[0].OutputDir)
}

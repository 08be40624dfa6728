// Package hclcfg loads experiment grid files written in HCL and translates
// them into the format-agnostic config model.
package hclcfg

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/zhangsongtt/rlop/internal/config"
	"github.com/zhangsongtt/rlop/internal/ctxlog"
	"github.com/zhangsongtt/rlop/internal/fsutil"
)

// Loader implements config.Loader for .hcl grid files.
type Loader struct{}

// NewLoader returns a ready Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from the given paths (files or
// directories) and merges their experiment blocks into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, root := range paths {
		files, err := fsutil.FindFilesByExtension(root, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("scanning %q for grid files: %w", root, err)
		}
		logger.Debug("Grid files discovered.", "root", root, "count", len(files))

		for _, path := range files {
			hclFile, diags := parser.ParseHCLFile(path)
			if diags.HasErrors() {
				return nil, fmt.Errorf("parsing %q: %s", path, diags.Error())
			}
			var fc fileConfig
			if diags := gohcl.DecodeBody(hclFile.Body, nil, &fc); diags.HasErrors() {
				return nil, fmt.Errorf("decoding %q: %s", path, diags.Error())
			}
			for _, block := range fc.Experiments {
				model.Experiments = append(model.Experiments, translateExperiment(block))
			}
			logger.Debug("Grid file loaded.", "path", path, "experiments", len(fc.Experiments))
		}
	}
	return model, nil
}

// translateExperiment layers a decoded block over the reference defaults.
func translateExperiment(b *experimentBlock) *config.Experiment {
	e := config.DefaultExperiment()
	e.Name = b.Name
	setString(&e.EnvID, b.Env)
	setString(&e.AlgoID, b.Algo)
	setInt(&e.Repetitions, b.Repetitions)
	setInt(&e.TotalTimesteps, b.TotalTimesteps)
	setInt(&e.NumEnvs, b.NumEnvs)
	setInt(&e.EvalEpisodes, b.EvalEpisodes)
	if b.Seed != nil {
		e.SeedBase = *b.Seed
	}
	setString(&e.OutputDir, b.OutputDir)

	if b.PPO != nil {
		p := &e.PPO
		setFloat(&p.LearningRate, b.PPO.LearningRate)
		setInt(&p.RolloutSteps, b.PPO.RolloutSteps)
		setInt(&p.BatchSize, b.PPO.BatchSize)
		setInt(&p.Epochs, b.PPO.Epochs)
		setFloat(&p.Gamma, b.PPO.Gamma)
		setFloat(&p.GAELambda, b.PPO.GAELambda)
		setFloat(&p.ClipRange, b.PPO.ClipRange)
		if b.PPO.NormalizeAdvantage != nil {
			p.NormalizeAdvantage = *b.PPO.NormalizeAdvantage
		}
		setFloat(&p.EntropyCoef, b.PPO.EntropyCoef)
		setFloat(&p.ValueCoef, b.PPO.ValueCoef)
		setFloat(&p.MaxGradNorm, b.PPO.MaxGradNorm)
		setFloat(&p.TargetKL, b.PPO.TargetKL)
		if len(b.PPO.HiddenSizes) > 0 {
			p.HiddenSizes = b.PPO.HiddenSizes
		}
	}
	return e
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

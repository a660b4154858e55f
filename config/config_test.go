package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 52, cfg.Simulation.Turns)
	assert.Len(t, cfg.States, 10)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := config.Load("/nonexistent/marketsim.yaml")
	assert.Error(t, err)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	yaml := `
simulation:
  seed: 1234
  turns: 10
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(1234), cfg.Simulation.Seed)
	assert.Equal(t, 10, cfg.Simulation.Turns)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.8, cfg.Demand.QualityCoefficient)
	assert.Len(t, cfg.Companies, 5)
}

func TestValidateRejectsNonNegativeElasticity(t *testing.T) {
	cfg := config.Default()
	lc := cfg.Lines[domain.LineAuto]
	lc.Elasticity = 0.5
	cfg.Lines[domain.LineAuto] = lc

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingLine(t *testing.T) {
	cfg := config.Default()
	delete(cfg.Lines, domain.LineLife)
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsShallowPareto(t *testing.T) {
	cfg := config.Default()
	lc := cfg.Lines[domain.LineLiability]
	lc.ParetoAlpha = 0.9
	cfg.Lines[domain.LineLiability] = lc

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadNoiseBand(t *testing.T) {
	cfg := config.Default()
	cfg.Perception.NoiseFloor = cfg.Perception.BaseNoise
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroDecayRate(t *testing.T) {
	cfg := config.Default()
	cfg.Perception.DecayRate = 0
	assert.Error(t, cfg.Validate())

	cfg.Perception.DecayRate = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsExcessiveMaxDiscount(t *testing.T) {
	cfg := config.Default()
	cfg.Crisis.MaxDiscount = 0.6
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownAdjacencyState(t *testing.T) {
	cfg := config.Default()
	cfg.Adjacency["CA"] = append(cfg.Adjacency["CA"], "ZZ")
	assert.Error(t, cfg.Validate())
}

func TestLineFallsBackForUnknownLine(t *testing.T) {
	cfg := config.Default()
	lc := cfg.Line(domain.LineOfBusiness("pet"))
	assert.Equal(t, cfg.Lines[domain.LineAuto], lc)
}

func TestTierFallsBackForUnknownTier(t *testing.T) {
	cfg := config.Default()
	tc := cfg.Tier(domain.Tier("platinum"))
	assert.Equal(t, cfg.Tiers[domain.TierStandard], tc)
}

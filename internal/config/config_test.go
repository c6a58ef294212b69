package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

func TestLoad_FixtureDirectory(t *testing.T) {
	cfg, err := Load("testdata")
	require.NoError(t, err)

	assert.Equal(t, "0.0.1-fixture", cfg.Settings.EngineVersion)
	assert.Equal(t, uint64(10), cfg.Settings.SnapshotInterval)
	assert.Equal(t, 5, cfg.Settings.InitialPopulation)
	assert.Equal(t, 25.0, cfg.Settings.Opex.ComplaintUnitCost)

	require.Contains(t, cfg.Products, "basic_checking")
	assert.Equal(t, 27.08, cfg.Products["basic_checking"].OverdraftFee)

	require.Contains(t, cfg.Segments, "mass_market")
	assert.Equal(t, 0.35, cfg.Segments["mass_market"].CashIntensity)
	assert.Equal(t, []string{"basic_checking"}, cfg.Segments["mass_market"].Products)

	require.Len(t, cfg.ComplaintTriggers, 1)
	assert.Equal(t, "overdraft", cfg.ComplaintTriggers[0].FeeType)

	require.Contains(t, cfg.ResolutionCodes, "explanation_only")
	require.Contains(t, cfg.FeeConstraints, "monthly_fee")
	require.Contains(t, cfg.Offers, "signup_bonus_100")
	assert.Equal(t, uint64(60), cfg.Offers["signup_bonus_100"].DurationTicks)

	assert.Equal(t, "fixture", cfg.Churn.ModelVersion)
	assert.Equal(t, 0.025, cfg.Churn.SegmentMonthlyRates["mass_market"])
	require.Len(t, cfg.Churn.LifeEvents, 1)

	require.Contains(t, cfg.RiskDials, "aml_alert_threshold")
	assert.Equal(t, 0.60, cfg.RiskDials["aml_alert_threshold"].DefaultValue)

	assert.True(t, cfg.RegulatoryExams.Enabled)
	assert.Equal(t, uint64(90), cfg.RegulatoryExams.ExamIntervalTicks)
	assert.Equal(t, []string{"OCC", "CFPB"}, cfg.RegulatoryExams.Examiners)
	assert.Equal(t, 500000.0, cfg.RegulatoryExams.FineCritical)

	assert.True(t, cfg.Reputation.Enabled)
	assert.Equal(t, 70.0, cfg.Reputation.InitialScore)
	assert.Equal(t, 8.0, cfg.Reputation.MOUImpact)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load("testdata/no-such-dir")
	require.Error(t, err)
	assert.True(t, sim.IsKind(err, sim.KindConfiguration))
}

func TestDefaultTest_Validates(t *testing.T) {
	cfg := DefaultTest()
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero snapshot interval", func(c *Config) { c.Settings.SnapshotInterval = 0 }},
		{"negative population", func(c *Config) { c.Settings.InitialPopulation = -1 }},
		{"no segments", func(c *Config) { c.Segments = nil }},
		{"unknown product", func(c *Config) {
			seg := c.Segments["mass_market"]
			seg.Products = []string{"no_such_product"}
			c.Segments["mass_market"] = seg
		}},
		{"inverted dial bounds", func(c *Config) {
			dial := c.RiskDials["aml_alert_threshold"]
			dial.MinValue, dial.MaxValue = dial.MaxValue, dial.MinValue
			c.RiskDials["aml_alert_threshold"] = dial
		}},
		{"exam duration not shorter than interval", func(c *Config) {
			c.RegulatoryExams.ExamDurationTicks = c.RegulatoryExams.ExamIntervalTicks
		}},
		{"no examiners", func(c *Config) { c.RegulatoryExams.Examiners = nil }},
		{"reputation score out of range", func(c *Config) { c.Reputation.InitialScore = 120 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTest()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, sim.IsKind(err, sim.KindConfiguration))
		})
	}
}

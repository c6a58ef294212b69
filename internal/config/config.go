// Package config loads the simulation's immutable configuration: engine
// settings from settings.yaml and domain catalogs from CUE files in the
// data directory. Configuration is read once at engine construction and
// never mutated afterwards.
package config

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// Settings are engine-level knobs, decoded from settings.yaml.
type Settings struct {
	EngineVersion     string `yaml:"engine_version"`
	SnapshotInterval  uint64 `yaml:"snapshot_interval"`
	InitialPopulation int    `yaml:"initial_population"`
	Opex              Opex   `yaml:"opex"`
}

// Opex is the operating-expense model used by the economics subsystem.
type Opex struct {
	StaffCount         int     `yaml:"staff_count"`
	LoadedCost         float64 `yaml:"loaded_cost"`
	OverheadMultiplier float64 `yaml:"overhead_multiplier"`
	ComplaintUnitCost  float64 `yaml:"complaint_unit_cost"`
}

// Product is one catalog product with its launch fee schedule.
type Product struct {
	ProductID     string  `json:"product_id"`
	ProductType   string  `json:"product_type"`
	Tier          string  `json:"tier"`
	Label         string  `json:"label"`
	MonthlyFee    float64 `json:"monthly_fee"`
	OverdraftFee  float64 `json:"overdraft_fee"`
	NSFFee        float64 `json:"nsf_fee"`
	ATMFee        float64 `json:"atm_fee"`
	WireFee       float64 `json:"wire_fee"`
	InterestRate  float64 `json:"interest_rate"`
	TargetSegment string  `json:"target_segment"`
}

// Segment describes one customer population segment.
type Segment struct {
	ID                   string    `json:"id"`
	Label                string    `json:"label"`
	PopulationShare      float64   `json:"population_share"`
	IncomeBands          []string  `json:"income_bands"`
	IncomeBandWeights    []float64 `json:"income_band_weights"`
	MonthlyTxnCountMean  float64   `json:"monthly_txn_count_mean"`
	MonthlyTxnCountStd   float64   `json:"monthly_txn_count_std"`
	TxnAmountParetoXmin  float64   `json:"txn_amount_pareto_xmin"`
	TxnAmountParetoAlpha float64   `json:"txn_amount_pareto_alpha"`
	CashIntensity        float64   `json:"cash_intensity"`
	PayrollProbability   float64   `json:"payroll_probability"`
	PayrollAmountMean    float64   `json:"payroll_amount_mean"`
	PayrollAmountStd     float64   `json:"payroll_amount_std"`
	BaseChurnRatePerTick float64   `json:"base_churn_rate_per_tick"`
	FeeSensitivity       float64   `json:"fee_sensitivity"`
	Products             []string  `json:"products"`
}

// ComplaintTrigger maps an event pattern to a complaint probability.
type ComplaintTrigger struct {
	EventType          string  `json:"event_type"`
	FeeType            string  `json:"fee_type,omitempty"`
	PriorBreach        bool    `json:"prior_breach,omitempty"`
	Probability        float64 `json:"probability"`
	IssueCategory      string  `json:"issue_category"`
	Priority           string  `json:"priority"`
	SLAAcknowledgeDays uint64  `json:"sla_acknowledge_days"`
	SLAResolveDays     uint64  `json:"sla_resolve_days"`
}

// ResolutionCode describes the customer impact of one complaint resolution.
type ResolutionCode struct {
	Code              string  `json:"code"`
	SatisfactionDelta float64 `json:"satisfaction_delta"`
	ChurnRiskDelta    float64 `json:"churn_risk_delta"`
	AvgAmountRefunded float64 `json:"avg_amount_refunded"`
}

// FeeConstraint bounds one fee type. Values above the soft limit raise the
// UDAAP risk score; values outside [min, max] are rejected outright.
type FeeConstraint struct {
	FeeType          string  `json:"fee_type"`
	MinValue         float64 `json:"min_value"`
	MaxValue         float64 `json:"max_value"`
	SoftLimit        float64 `json:"soft_limit"`
	SoftLimitWarning string  `json:"soft_limit_warning"`
	HardLimitReason  string  `json:"hard_limit_reason"`
	UDAAPRiskDelta   float64 `json:"udaap_risk_delta,omitempty"`
}

// Offer is one promotional offer from the catalog.
type Offer struct {
	OfferID           string   `json:"offer_id"`
	OfferType         string   `json:"offer_type"`
	Label             string   `json:"label"`
	ProductID         string   `json:"product_id,omitempty"`
	BonusAmount       float64  `json:"bonus_amount"`
	MinDirectDeposit  float64  `json:"min_direct_deposit"`
	DurationTicks     uint64   `json:"duration_ticks"`
	TargetSegments    []string `json:"target_segments"`
	MatchProbability  float64  `json:"match_probability"`
	CompletionChance  float64  `json:"completion_chance"`
	Active            bool     `json:"active"`
}

// ChurnModel parameterizes the monthly churn scoring pass.
type ChurnModel struct {
	ModelVersion            string             `json:"model_version"`
	UpdateFrequencyTicks    uint64             `json:"update_frequency_ticks"`
	SegmentMonthlyRates     map[string]float64 `json:"segment_monthly_rates"`
	SatisfactionWeight      float64            `json:"satisfaction_weight"`
	SatisfactionEquilibrium float64            `json:"satisfaction_equilibrium"`
	ComplaintWeight         float64            `json:"complaint_weight"`
	ComplaintLookbackTicks  uint64             `json:"complaint_lookback_ticks"`
	SLABreachWeight         float64            `json:"sla_breach_weight"`
	LifeEventMultiplier     float64            `json:"life_event_multiplier"`
	LifeEvents              []LifeEvent        `json:"life_events"`
	Thresholds              ChurnThresholds    `json:"thresholds"`
}

// LifeEvent is one modeled customer life event.
type LifeEvent struct {
	EventType          string  `json:"event_type"`
	ProbabilityPerYear float64 `json:"probability_per_year"`
	ChurnRiskDelta     float64 `json:"churn_risk_delta"`
	DurationTicks      uint64  `json:"duration_ticks"`
}

// ChurnThresholds band churn scores for reporting.
type ChurnThresholds struct {
	LowRisk       float64 `json:"low_risk"`
	MediumRisk    float64 `json:"medium_risk"`
	HighRisk      float64 `json:"high_risk"`
	ImminentChurn float64 `json:"imminent_churn"`
}

// RegulatoryExams parameterizes the periodic examination cycle.
type RegulatoryExams struct {
	Enabled              bool     `json:"enabled"`
	ExamIntervalTicks    uint64   `json:"exam_interval_ticks"`
	ExamDurationTicks    uint64   `json:"exam_duration_ticks"`
	Examiners            []string `json:"examiners"`
	FineMinor            float64  `json:"fine_minor"`
	FineModerate         float64  `json:"fine_moderate"`
	FineMajor            float64  `json:"fine_major"`
	FineCritical         float64  `json:"fine_critical"`
	MOUCriticalThreshold uint32   `json:"mou_critical_threshold"`
}

// Reputation parameterizes the composite reputation score.
type Reputation struct {
	Enabled         bool    `json:"enabled"`
	InitialScore    float64 `json:"initial_score"`
	RecoveryPerTick float64 `json:"recovery_per_tick"`
	SLABreachImpact float64 `json:"sla_breach_impact"`
	SARLateImpact   float64 `json:"sar_late_impact"`
	MOUImpact       float64 `json:"mou_impact"`
	FineImpactPer1K float64 `json:"fine_impact_per_1k"`
}

// RiskDial is one player-adjustable risk appetite dial.
type RiskDial struct {
	DialID       string  `json:"dial_id"`
	Label        string  `json:"label"`
	MinValue     float64 `json:"min_value"`
	MaxValue     float64 `json:"max_value"`
	DefaultValue float64 `json:"default_value"`
}

// Config is the full immutable configuration handed to the engine.
type Config struct {
	Settings          Settings
	Segments          map[string]Segment
	Products          map[string]Product
	ComplaintTriggers []ComplaintTrigger
	ResolutionCodes   map[string]ResolutionCode
	FeeConstraints    map[string]FeeConstraint
	Offers            map[string]Offer
	Churn             ChurnModel
	RiskDials         map[string]RiskDial
	RegulatoryExams   RegulatoryExams
	Reputation        Reputation
}

// Validate checks cross-field sanity after loading. Out-of-range values are
// configuration errors per the kernel taxonomy.
func (c *Config) Validate() error {
	if c.Settings.SnapshotInterval == 0 {
		return sim.InvalidConfig("snapshot_interval must be > 0")
	}
	if c.Settings.InitialPopulation < 0 {
		return sim.InvalidConfig("initial_population must be >= 0")
	}
	if len(c.Segments) == 0 {
		return sim.InvalidConfig("at least one segment is required")
	}
	var share float64
	for id, seg := range c.Segments {
		if seg.PopulationShare < 0 {
			return sim.InvalidConfig("segment " + id + ": population_share must be >= 0")
		}
		share += seg.PopulationShare
		if len(seg.Products) == 0 {
			return sim.InvalidConfig("segment " + id + ": at least one product is required")
		}
		for _, p := range seg.Products {
			if _, ok := c.Products[p]; !ok {
				return sim.InvalidConfig("segment " + id + ": unknown product " + p)
			}
		}
	}
	if share <= 0 {
		return sim.InvalidConfig("segment population shares must sum above 0")
	}
	for dialID, dial := range c.RiskDials {
		if dial.MinValue > dial.MaxValue {
			return sim.InvalidConfig("risk dial " + dialID + ": min_value above max_value")
		}
	}
	if c.RegulatoryExams.Enabled {
		if c.RegulatoryExams.ExamIntervalTicks == 0 || c.RegulatoryExams.ExamDurationTicks == 0 {
			return sim.InvalidConfig("regulatory exams: interval and duration must be > 0")
		}
		if c.RegulatoryExams.ExamDurationTicks >= c.RegulatoryExams.ExamIntervalTicks {
			return sim.InvalidConfig("regulatory exams: duration must be shorter than the interval")
		}
		if len(c.RegulatoryExams.Examiners) == 0 {
			return sim.InvalidConfig("regulatory exams: at least one examiner is required")
		}
	}
	if c.Reputation.Enabled {
		if c.Reputation.InitialScore < 0 || c.Reputation.InitialScore > 100 {
			return sim.InvalidConfig("reputation: initial_score must be within [0, 100]")
		}
	}
	return nil
}

package config

// DefaultTest returns a small hardcoded configuration for unit tests, so
// engine tests never depend on the data directory.
func DefaultTest() *Config {
	return &Config{
		Settings: Settings{
			EngineVersion:     "0.1.0-test",
			SnapshotInterval:  30,
			InitialPopulation: 50,
			Opex: Opex{
				StaffCount:         20,
				LoadedCost:         85000.0,
				OverheadMultiplier: 1.8,
				ComplaintUnitCost:  50.0,
			},
		},
		Segments: map[string]Segment{
			"mass_market": {
				ID:                   "mass_market",
				Label:                "Mass Market",
				PopulationShare:      1.0,
				IncomeBands:          []string{"low", "middle"},
				IncomeBandWeights:    []float64{0.6, 0.4},
				MonthlyTxnCountMean:  20.0,
				MonthlyTxnCountStd:   4.0,
				TxnAmountParetoXmin:  15.0,
				TxnAmountParetoAlpha: 1.8,
				CashIntensity:        0.35,
				PayrollProbability:   0.5,
				PayrollAmountMean:    2000.0,
				PayrollAmountStd:     400.0,
				BaseChurnRatePerTick: 0.001,
				FeeSensitivity:       0.8,
				Products:             []string{"basic_checking"},
			},
		},
		Products: map[string]Product{
			"basic_checking": {
				ProductID:     "basic_checking",
				ProductType:   "checking",
				Tier:          "basic",
				Label:         "Basic Checking",
				MonthlyFee:    0.0,
				OverdraftFee:  27.08,
				NSFFee:        17.72,
				ATMFee:        2.50,
				WireFee:       25.0,
				InterestRate:  0.0,
				TargetSegment: "mass_market",
			},
		},
		ComplaintTriggers: []ComplaintTrigger{
			{
				EventType:          "fee_charged",
				FeeType:            "overdraft",
				Probability:        0.12,
				IssueCategory:      "fee_dispute",
				Priority:           "standard",
				SLAAcknowledgeDays: 2,
				SLAResolveDays:     15,
			},
			{
				EventType:          "sla_breach",
				PriorBreach:        true,
				Probability:        0.25,
				IssueCategory:      "service_failure",
				Priority:           "elevated",
				SLAAcknowledgeDays: 1,
				SLAResolveDays:     10,
			},
		},
		ResolutionCodes: map[string]ResolutionCode{
			"explanation_only": {
				Code:              "explanation_only",
				SatisfactionDelta: -0.02,
				ChurnRiskDelta:    0.03,
				AvgAmountRefunded: 0.0,
			},
			"monetary_relief": {
				Code:              "monetary_relief",
				SatisfactionDelta: 0.15,
				ChurnRiskDelta:    -0.10,
				AvgAmountRefunded: 27.08,
			},
		},
		FeeConstraints: map[string]FeeConstraint{
			"monthly_fee": {
				FeeType:          "monthly_fee",
				MinValue:         0.0,
				MaxValue:         30.0,
				SoftLimit:        20.0,
				SoftLimitWarning: "Fees above $20/month trigger 1.4x complaint rate multiplier",
				HardLimitReason:  "Federal disclosure requirements limit monthly fees to $30",
			},
			"overdraft_fee": {
				FeeType:          "overdraft_fee",
				MinValue:         0.0,
				MaxValue:         35.0,
				SoftLimit:        29.0,
				SoftLimitWarning: "Overdraft fees above $29 add +0.10 to UDAAP risk score",
				HardLimitReason:  "FDIC guidance ceiling of $35 per overdraft event",
				UDAAPRiskDelta:   0.10,
			},
			"nsf_fee": {
				FeeType:          "nsf_fee",
				MinValue:         0.0,
				MaxValue:         25.0,
				SoftLimit:        20.0,
				SoftLimitWarning: "NSF fees above $20 add +0.08 to UDAAP risk score",
				HardLimitReason:  "Industry best practice ceiling of $25",
				UDAAPRiskDelta:   0.08,
			},
			"atm_fee": {
				FeeType:          "atm_fee",
				MinValue:         0.0,
				MaxValue:         8.0,
				SoftLimit:        5.0,
				SoftLimitWarning: "ATM fees above $5 trigger satisfaction delta -0.05",
				HardLimitReason:  "No regulatory ceiling, competitive pressure limits to ~$8",
			},
			"wire_fee": {
				FeeType:          "wire_fee",
				MinValue:         0.0,
				MaxValue:         50.0,
				SoftLimit:        35.0,
				SoftLimitWarning: "Wire fees above $35 increase premium segment churn sensitivity",
				HardLimitReason:  "No regulatory ceiling, market-driven limit",
			},
		},
		Offers: map[string]Offer{
			"signup_bonus_100": {
				OfferID:          "signup_bonus_100",
				OfferType:        "signup_cash_bonus",
				Label:            "$100 Sign-Up Bonus",
				ProductID:        "basic_checking",
				BonusAmount:      100.0,
				MinDirectDeposit: 500.0,
				DurationTicks:    60,
				TargetSegments:   []string{"mass_market"},
				MatchProbability: 0.30,
				CompletionChance: 0.02,
				Active:           true,
			},
		},
		Churn: ChurnModel{
			ModelVersion:            "2.3.0-test",
			UpdateFrequencyTicks:    30,
			SegmentMonthlyRates:     map[string]float64{"mass_market": 0.025},
			SatisfactionWeight:      0.40,
			SatisfactionEquilibrium: 0.65,
			ComplaintWeight:         0.20,
			ComplaintLookbackTicks:  90,
			SLABreachWeight:         0.35,
			LifeEventMultiplier:     1.25,
			LifeEvents: []LifeEvent{
				{
					EventType:          "job_change",
					ProbabilityPerYear: 0.15,
					ChurnRiskDelta:     0.12,
					DurationTicks:      90,
				},
			},
			Thresholds: ChurnThresholds{
				LowRisk:       0.30,
				MediumRisk:    0.60,
				HighRisk:      0.85,
				ImminentChurn: 0.95,
			},
		},
		RegulatoryExams: RegulatoryExams{
			Enabled:              true,
			ExamIntervalTicks:    90,
			ExamDurationTicks:    14,
			Examiners:            []string{"OCC", "CFPB", "FDIC", "FRB"},
			FineMinor:            5000.0,
			FineModerate:         25000.0,
			FineMajor:            100000.0,
			FineCritical:         500000.0,
			MOUCriticalThreshold: 1,
		},
		Reputation: Reputation{
			Enabled:         true,
			InitialScore:    70.0,
			RecoveryPerTick: 0.05,
			SLABreachImpact: 0.4,
			SARLateImpact:   1.5,
			MOUImpact:       8.0,
			FineImpactPer1K: 0.05,
		},
		RiskDials: map[string]RiskDial{
			"aml_alert_threshold": {
				DialID:       "aml_alert_threshold",
				Label:        "AML alert threshold",
				MinValue:     0.10,
				MaxValue:     0.95,
				DefaultValue: 0.60,
			},
			"fraud_review_threshold": {
				DialID:       "fraud_review_threshold",
				Label:        "Fraud review threshold",
				MinValue:     0.10,
				MaxValue:     0.95,
				DefaultValue: 0.60,
			},
		},
	}
}

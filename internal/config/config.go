// Package config loads RidgeRadar's YAML configuration file, merges in
// .env and environment-variable overrides, and fills in hard-coded
// defaults.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete RidgeRadar configuration.
type Config struct {
	Gateway       GatewayConfig       `yaml:"gateway"`
	Storage       StorageConfig       `yaml:"storage"`
	Redis         RedisConfig         `yaml:"redis"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Shadow        ShadowConfig        `yaml:"shadow"`
	Discovery     DiscoveryConfig     `yaml:"discovery"`
	Log           LogConfig           `yaml:"log"`
}

// GatewayConfig configures the Exchange Gateway (C1).
type GatewayConfig struct {
	BaseURL        string  `yaml:"base_url"`
	LoginURL       string  `yaml:"login_url"`
	Username       string  `yaml:"username"`
	Password       string  `yaml:"password"`
	AppKey         string  `yaml:"app_key"`
	CertPath       string  `yaml:"cert_path"`
	CertKeyPath    string  `yaml:"cert_key_path"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
	PriceDepth     int     `yaml:"price_depth"`
}

// StorageConfig controls where data is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig configures the shared rate-limiter bucket store and
// session-token cache (§9).
type RedisConfig struct {
	Addr string `yaml:"addr"` // empty disables the shared store
}

// SchedulerConfig is parsed from the YAML `scheduler` section (§4.11). The
// scheduler does not read it: cmd/ridgeradar runs every task at the cadence
// fixed in main.go, whatever these fields hold.
type SchedulerConfig struct {
	DiscoverySeconds        int `yaml:"discovery_seconds"`
	SnapshotSeconds         int `yaml:"snapshot_seconds"`
	ScoreSeconds            int `yaml:"score_seconds"`
	ClosingOddsSeconds      int `yaml:"closing_odds_seconds"`
	SettlementSeconds       int `yaml:"settlement_seconds"`
	EventResultsSeconds     int `yaml:"event_results_seconds"`
	ShadowDecisionsSeconds  int `yaml:"shadow_decisions_seconds"`
	ClosingMidsSeconds      int `yaml:"closing_mids_seconds"`
	ShadowSettlementSeconds int `yaml:"shadow_settlement_seconds"`
}

// ScoringConfig seeds the active ConfigVersion (§4.5, §6).
type ScoringConfig struct {
	Weights struct {
		Spread        float64 `yaml:"spread"`
		Volatility    float64 `yaml:"volatility"`
		UpdateRate    float64 `yaml:"update_rate"`
		Depth         float64 `yaml:"depth"`
		VolumePenalty float64 `yaml:"volume_penalty"`
	} `yaml:"weights"`
	Normalisation struct {
		Spread struct {
			MinTicks     float64 `yaml:"min_ticks"`
			SweetSpotMax float64 `yaml:"sweet_spot_max"`
			MaxTicks     float64 `yaml:"max_ticks"`
		} `yaml:"spread"`
		Volatility struct {
			Target float64 `yaml:"target"`
			Max    float64 `yaml:"max"`
		} `yaml:"volatility"`
		UpdateRate struct {
			Min float64 `yaml:"min"`
			Max float64 `yaml:"max"`
		} `yaml:"update_rate"`
		Depth struct {
			Min     float64 `yaml:"min"`
			Optimal float64 `yaml:"optimal"`
			Max     float64 `yaml:"max"`
		} `yaml:"depth"`
		Volume struct {
			Threshold float64 `yaml:"threshold"`
			Max       float64 `yaml:"max"`
			HardCap   float64 `yaml:"hard_cap"`
		} `yaml:"volume"`
	} `yaml:"normalisation"`
	Guards struct {
		AbsoluteMinDepth       float64 `yaml:"absolute_min_depth"`
		AbsoluteMaxSpreadTicks float64 `yaml:"absolute_max_spread_ticks"`
		MinSnapshotsRequired   int     `yaml:"min_snapshots_required"`
	} `yaml:"guards"`
}

// ShadowConfig configures the Hypothesis Engine / Shadow Settler (C9, C10)
// and the Phase Gate (C8) activation thresholds.
type ShadowConfig struct {
	Enabled            bool    `yaml:"enabled"`
	AutoActivatePhase2 bool    `yaml:"auto_activate_phase2"`
	BaseStake          float64 `yaml:"base_stake"`
	CommissionRate     float64 `yaml:"commission_rate"`
	MaxStakePerMarket  float64 `yaml:"max_stake_per_market"`
	MaxStakePerEvent   float64 `yaml:"max_stake_per_event"`
	MaxStakePerDay     float64 `yaml:"max_stake_per_day"`

	ActivationClosingDataRows     int `yaml:"activation_closing_data_rows"`
	ActivationSettledRows         int `yaml:"activation_settled_rows"`
	ActivationHighScoreMarkets    int `yaml:"activation_high_score_markets"`
	ActivationDaysObserved        int `yaml:"activation_days_observed"`

	// MinChangePct is the Hypothesis Engine's primary-window noise floor
	// (§4.9): a signal's primary change percentage must clear this before
	// any hypothesis gets to match against it.
	MinChangePct float64 `yaml:"min_change_pct"`

	// There is no live-trading setting: nothing in this configuration can
	// enable live trading (§6 safety invariant).
}

// DiscoveryConfig configures the hard-exclusion patterns (§4.2).
type DiscoveryConfig struct {
	ExclusionPatterns []string `yaml:"exclusion_patterns"`
	EventLookaheadHours int    `yaml:"event_lookahead_hours"`
	MarketTypes         []string `yaml:"market_types"`
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML config file at path, merges .env (best-effort) and
// environment-variable overrides, and fills in defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("GATEWAY_USERNAME"); v != "" {
		cfg.Gateway.Username = v
	}
	if v := os.Getenv("GATEWAY_PASSWORD"); v != "" {
		cfg.Gateway.Password = v
	}
	if v := os.Getenv("GATEWAY_APP_KEY"); v != "" {
		cfg.Gateway.AppKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Gateway.RatePerSecond <= 0 {
		cfg.Gateway.RatePerSecond = 5.0
	}
	if cfg.Gateway.Burst <= 0 {
		cfg.Gateway.Burst = 10
	}
	if cfg.Gateway.PriceDepth <= 0 {
		cfg.Gateway.PriceDepth = 3
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "ridgeradar.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if len(cfg.Discovery.ExclusionPatterns) == 0 {
		cfg.Discovery.ExclusionPatterns = []string{
			"friendly", "u21", "u19", "u17", "reserve", "amateur", "women",
		}
	}
	if cfg.Discovery.EventLookaheadHours <= 0 {
		cfg.Discovery.EventLookaheadHours = 72
	}

	if cfg.Scoring.Weights.Spread == 0 && cfg.Scoring.Weights.Volatility == 0 {
		cfg.Scoring.Weights.Spread = 0.25
		cfg.Scoring.Weights.Volatility = 0.25
		cfg.Scoring.Weights.UpdateRate = 0.15
		cfg.Scoring.Weights.Depth = 0.20
		cfg.Scoring.Weights.VolumePenalty = 0.15
	}
	if cfg.Scoring.Normalisation.Spread.MaxTicks == 0 {
		cfg.Scoring.Normalisation.Spread.MinTicks = 2
		cfg.Scoring.Normalisation.Spread.SweetSpotMax = 8
		cfg.Scoring.Normalisation.Spread.MaxTicks = 12
	}
	if cfg.Scoring.Normalisation.Volatility.Max == 0 {
		cfg.Scoring.Normalisation.Volatility.Target = 0.04
		cfg.Scoring.Normalisation.Volatility.Max = 0.12
	}
	if cfg.Scoring.Normalisation.UpdateRate.Max == 0 {
		cfg.Scoring.Normalisation.UpdateRate.Min = 0.2
		cfg.Scoring.Normalisation.UpdateRate.Max = 3.0
	}
	if cfg.Scoring.Normalisation.Depth.Max == 0 {
		cfg.Scoring.Normalisation.Depth.Min = 150
		cfg.Scoring.Normalisation.Depth.Optimal = 1500
		cfg.Scoring.Normalisation.Depth.Max = 8000
	}
	if cfg.Scoring.Normalisation.Volume.HardCap == 0 {
		cfg.Scoring.Normalisation.Volume.Threshold = 30000
		cfg.Scoring.Normalisation.Volume.Max = 200000
		cfg.Scoring.Normalisation.Volume.HardCap = 500000
	}
	if cfg.Scoring.Guards.AbsoluteMinDepth == 0 {
		cfg.Scoring.Guards.AbsoluteMinDepth = 100
	}
	if cfg.Scoring.Guards.AbsoluteMaxSpreadTicks == 0 {
		cfg.Scoring.Guards.AbsoluteMaxSpreadTicks = 20
	}
	if cfg.Scoring.Guards.MinSnapshotsRequired == 0 {
		cfg.Scoring.Guards.MinSnapshotsRequired = 5
	}

	if cfg.Shadow.CommissionRate <= 0 {
		cfg.Shadow.CommissionRate = 0.02
	}
	if cfg.Shadow.BaseStake <= 0 {
		cfg.Shadow.BaseStake = 10
	}
	if cfg.Shadow.ActivationClosingDataRows <= 0 {
		cfg.Shadow.ActivationClosingDataRows = 500
	}
	if cfg.Shadow.ActivationSettledRows <= 0 {
		cfg.Shadow.ActivationSettledRows = 200
	}
	if cfg.Shadow.ActivationHighScoreMarkets <= 0 {
		cfg.Shadow.ActivationHighScoreMarkets = 50
	}
	if cfg.Shadow.ActivationDaysObserved <= 0 {
		cfg.Shadow.ActivationDaysObserved = 2
	}
	if cfg.Shadow.MinChangePct <= 0 {
		cfg.Shadow.MinChangePct = 2.0
	}
}

package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// RatingConfig holds the tunable rates used by quotation simulation, policy
// premium split and advisory underwriting checks. Rates are fractions.
type RatingConfig struct {
	SimulationRate float64 `mapstructure:"simulationRate"`
	TaxRate        float64 `mapstructure:"taxRate"`
	LateDailyRate  float64 `mapstructure:"lateDailyRate"`

	VehicleLiabilityFloor float64 `mapstructure:"vehicleLiabilityFloor"`
	CondoLiabilityFloor   float64 `mapstructure:"condoLiabilityFloor"`
	OtherMinimumInsured   float64 `mapstructure:"otherMinimumInsured"`
}

func DefaultRatingConfig() RatingConfig {
	return RatingConfig{
		SimulationRate:        0.002,
		TaxRate:               0.19,
		LateDailyRate:         0.0015,
		VehicleLiabilityFloor: 50_000_000,
		CondoLiabilityFloor:   100_000_000,
		OtherMinimumInsured:   1_000_000,
	}
}

func (c RatingConfig) Simulation() decimal.Decimal { return decimal.NewFromFloat(c.SimulationRate) }
func (c RatingConfig) Tax() decimal.Decimal        { return decimal.NewFromFloat(c.TaxRate) }
func (c RatingConfig) LateDaily() decimal.Decimal  { return decimal.NewFromFloat(c.LateDailyRate) }

func (c RatingConfig) VehicleFloor() decimal.Decimal {
	return decimal.NewFromFloat(c.VehicleLiabilityFloor)
}

func (c RatingConfig) CondoFloor() decimal.Decimal {
	return decimal.NewFromFloat(c.CondoLiabilityFloor)
}

func (c RatingConfig) OtherMinimum() decimal.Decimal {
	return decimal.NewFromFloat(c.OtherMinimumInsured)
}

type RatingConfigHolder struct {
	current atomic.Value // holds RatingConfig
}

// NewStaticRatingConfigHolder returns a holder that never reloads.
func NewStaticRatingConfigHolder(cfg RatingConfig) *RatingConfigHolder {
	holder := &RatingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewRatingConfigHolder() (*RatingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rating")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/brokerage")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BROKERAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRatingConfig()
	v.SetDefault("rating.simulationRate", defaults.SimulationRate)
	v.SetDefault("rating.taxRate", defaults.TaxRate)
	v.SetDefault("rating.lateDailyRate", defaults.LateDailyRate)
	v.SetDefault("rating.vehicleLiabilityFloor", defaults.VehicleLiabilityFloor)
	v.SetDefault("rating.condoLiabilityFloor", defaults.CondoLiabilityFloor)
	v.SetDefault("rating.otherMinimumInsured", defaults.OtherMinimumInsured)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg RatingConfig
	if err := v.UnmarshalKey("rating", &cfg); err != nil {
		return nil, err
	}
	if err := validateRatingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticRatingConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RatingConfig
		if err := v.UnmarshalKey("rating", &updated); err != nil {
			log.Printf("[rating-config] reload failed: %v", err)
			return
		}
		if err := validateRatingConfig(updated); err != nil {
			log.Printf("[rating-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[rating-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// Get returns the active config. A nil holder yields the defaults.
func (h *RatingConfigHolder) Get() RatingConfig {
	if h == nil {
		return DefaultRatingConfig()
	}
	cfg, ok := h.current.Load().(RatingConfig)
	if !ok {
		return DefaultRatingConfig()
	}
	return cfg
}

func validateRatingConfig(cfg RatingConfig) error {
	if cfg.SimulationRate < 0 {
		return errors.New("rating.simulationRate cannot be negative")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return errors.New("rating.taxRate must be in [0, 1)")
	}
	if cfg.LateDailyRate < 0 {
		return errors.New("rating.lateDailyRate cannot be negative")
	}
	return nil
}

package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RatingConfig tunes the cost engine. Values are minutes.
type RatingConfig struct {
	StepMinutes          int `mapstructure:"stepMinutes" json:"step_minutes"`
	FinalRoundingMinutes int `mapstructure:"finalRoundingMinutes" json:"final_rounding_minutes"`
	DiscountCapMinutes   int `mapstructure:"discountCapMinutes" json:"discount_cap_minutes"`
}

func DefaultRatingConfig() RatingConfig {
	return RatingConfig{
		StepMinutes:          30,
		FinalRoundingMinutes: 15,
		DiscountCapMinutes:   60,
	}
}

type RatingConfigHolder struct {
	current atomic.Value // holds RatingConfig
}

func NewRatingConfigHolder() (*RatingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rating")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/fieldrate/config") // Volume-mounted config
	v.AddConfigPath("/etc/fieldrate")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	// env hanya untuk path override (optional)
	v.SetEnvPrefix("FIELDRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// if config file not found, use defaults
		defaults := DefaultRatingConfig()
		v.SetDefault("rating.stepMinutes", defaults.StepMinutes)
		v.SetDefault("rating.finalRoundingMinutes", defaults.FinalRoundingMinutes)
		v.SetDefault("rating.discountCapMinutes", defaults.DiscountCapMinutes)
	}

	var cfg RatingConfig
	if err := v.UnmarshalKey("rating", &cfg); err != nil {
		return nil, err
	}
	if err := validateRatingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RatingConfigHolder{}
	holder.current.Store(cfg)

	// 🔥 HOT RELOAD
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

func (h *RatingConfigHolder) Get() RatingConfig {
	return h.current.Load().(RatingConfig)
}

func validateRatingConfig(cfg RatingConfig) error {
	if cfg.StepMinutes <= 0 {
		return errors.New("rating.stepMinutes must be positive")
	}
	if 60%cfg.StepMinutes != 0 {
		return errors.New("rating.stepMinutes must divide an hour evenly")
	}
	if cfg.FinalRoundingMinutes <= 0 {
		return errors.New("rating.finalRoundingMinutes must be positive")
	}
	if cfg.DiscountCapMinutes < 0 {
		return errors.New("rating.discountCapMinutes cannot be negative")
	}
	return nil
}

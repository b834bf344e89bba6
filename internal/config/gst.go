package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GSTPolicy holds the tunable rules of the document lifecycles.
type GSTPolicy struct {
	Eway    EwayPolicy    `mapstructure:"eway"`
	Overdue OverduePolicy `mapstructure:"overdue"`
}

type EwayPolicy struct {
	// Distances strictly above this get the long validity window.
	DistanceThresholdKm int           `mapstructure:"distanceThresholdKm"`
	ShortValidity       time.Duration `mapstructure:"shortValidity"`
	LongValidity        time.Duration `mapstructure:"longValidity"`
	// Minimum invoice total in paise; 0 disables the check.
	ValueThreshold int64 `mapstructure:"valueThreshold"`
}

type OverduePolicy struct {
	SweepInterval time.Duration `mapstructure:"sweepInterval"`
	BatchSize     int           `mapstructure:"batchSize"`
}

func DefaultGSTPolicy() GSTPolicy {
	return GSTPolicy{
		Eway: EwayPolicy{
			DistanceThresholdKm: 200,
			ShortValidity:       24 * time.Hour,
			LongValidity:        72 * time.Hour,
			ValueThreshold:      5_000_000,
		},
		Overdue: OverduePolicy{
			SweepInterval: 15 * time.Minute,
			BatchSize:     100,
		},
	}
}

type GSTPolicyHolder struct {
	current atomic.Value // holds GSTPolicy
}

// NewStaticGSTPolicy returns a holder that never reloads.
func NewStaticGSTPolicy(p GSTPolicy) *GSTPolicyHolder {
	h := &GSTPolicyHolder{}
	h.current.Store(p)
	return h
}

func NewGSTPolicyHolder(log *zap.Logger) (*GSTPolicyHolder, error) {
	log = log.Named("config.gst")
	v := viper.New()

	v.SetConfigName("gst")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/gstbook")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GSTBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGSTPolicy()
	v.SetDefault("gst.eway.distanceThresholdKm", defaults.Eway.DistanceThresholdKm)
	v.SetDefault("gst.eway.shortValidity", defaults.Eway.ShortValidity)
	v.SetDefault("gst.eway.longValidity", defaults.Eway.LongValidity)
	v.SetDefault("gst.eway.valueThreshold", defaults.Eway.ValueThreshold)
	v.SetDefault("gst.overdue.sweepInterval", defaults.Overdue.SweepInterval)
	v.SetDefault("gst.overdue.batchSize", defaults.Overdue.BatchSize)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg GSTPolicy
	if err := v.UnmarshalKey("gst", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateGSTPolicy(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticGSTPolicy(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated GSTPolicy
		if err := v.UnmarshalKey("gst", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := ValidateGSTPolicy(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *GSTPolicyHolder) Get() GSTPolicy {
	return h.current.Load().(GSTPolicy)
}

func ValidateGSTPolicy(cfg GSTPolicy) error {
	if cfg.Eway.DistanceThresholdKm <= 0 {
		return errors.New("gst.eway.distanceThresholdKm must be positive")
	}
	if cfg.Eway.ShortValidity <= 0 || cfg.Eway.LongValidity <= 0 {
		return errors.New("gst.eway validity windows must be positive")
	}
	if cfg.Eway.LongValidity < cfg.Eway.ShortValidity {
		return errors.New("gst.eway.longValidity cannot be shorter than shortValidity")
	}
	if cfg.Eway.ValueThreshold < 0 {
		return errors.New("gst.eway.valueThreshold cannot be negative")
	}
	if cfg.Overdue.SweepInterval <= 0 {
		return errors.New("gst.overdue.sweepInterval must be positive")
	}
	if cfg.Overdue.BatchSize <= 0 {
		return errors.New("gst.overdue.batchSize must be positive")
	}
	return nil
}

package config

import (
	"os"
	"strconv"
	"time"

	"ayursense/domain/dosha"
	"ayursense/domain/fusion"
	"ayursense/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server ServerConfig
	Fusion FusionConfig
	Pulse  PulseConfig
	Cache  CacheConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// FusionConfig holds the per-modality base weights and decision thresholds
type FusionConfig struct {
	TongueWeight    float64
	PulseWeight     float64
	SymptomsWeight  float64
	VoiceWeight     float64
	DominantEpsilon float64
	ModerateGap     float64
	SevereGap       float64
}

// PulseConfig holds pulse analysis settings
type PulseConfig struct {
	ModalityTimeout time.Duration // per-modality budget before it is treated as absent
	SyntheticSeed   int64
}

// CacheConfig holds analysis cache settings
type CacheConfig struct {
	Capacity int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envString("PORT", "8080"),
		},
		Fusion: FusionConfig{
			TongueWeight:    envFloat("FUSION_WEIGHT_TONGUE", fusion.DefaultBaseWeights()[dosha.ModalityTongue]),
			PulseWeight:     envFloat("FUSION_WEIGHT_PULSE", fusion.DefaultBaseWeights()[dosha.ModalityPulse]),
			SymptomsWeight:  envFloat("FUSION_WEIGHT_SYMPTOMS", fusion.DefaultBaseWeights()[dosha.ModalitySymptoms]),
			VoiceWeight:     envFloat("FUSION_WEIGHT_VOICE", fusion.DefaultBaseWeights()[dosha.ModalityVoice]),
			DominantEpsilon: envFloat("FUSION_DOMINANT_EPSILON", fusion.DefaultDominantEpsilon),
			ModerateGap:     envFloat("FUSION_MODERATE_GAP", fusion.DefaultModerateGap),
			SevereGap:       envFloat("FUSION_SEVERE_GAP", fusion.DefaultSevereGap),
		},
		Pulse: PulseConfig{
			ModalityTimeout: time.Duration(envInt("MODALITY_TIMEOUT_MS", 5000)) * time.Millisecond,
			SyntheticSeed:   int64(envInt("SYNTHETIC_SEED", 42)),
		},
		Cache: CacheConfig{
			Capacity: envInt("ANALYSIS_CACHE_CAPACITY", 256),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// FusionEngineConfig converts the loaded settings into the fusion engine's
// configuration shape.
func (c *Config) FusionEngineConfig() fusion.Config {
	return fusion.Config{
		BaseWeights: map[string]float64{
			dosha.ModalityTongue:   c.Fusion.TongueWeight,
			dosha.ModalityPulse:    c.Fusion.PulseWeight,
			dosha.ModalitySymptoms: c.Fusion.SymptomsWeight,
			dosha.ModalityVoice:    c.Fusion.VoiceWeight,
		},
		DominantEpsilon: c.Fusion.DominantEpsilon,
		ModerateGap:     c.Fusion.ModerateGap,
		SevereGap:       c.Fusion.SevereGap,
	}
}

func validate(c *Config) error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server port is empty")
	}
	weights := []float64{
		c.Fusion.TongueWeight,
		c.Fusion.PulseWeight,
		c.Fusion.SymptomsWeight,
		c.Fusion.VoiceWeight,
	}
	for _, w := range weights {
		if w <= 0 {
			return errors.ConfigInvalid("fusion base weights must be positive")
		}
	}
	if c.Fusion.SevereGap <= c.Fusion.ModerateGap {
		return errors.ConfigInvalid("severe gap threshold must exceed moderate gap threshold")
	}
	if c.Pulse.ModalityTimeout <= 0 {
		return errors.ConfigInvalid("modality timeout must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

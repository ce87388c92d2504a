package pulse

import (
	"math"
	"math/rand"

	"ayursense/internal/errors"
)

// SyntheticParams parameterizes the deterministic pulse generator used for
// demos and tests. Production waveforms come from the capture path instead.
type SyntheticParams struct {
	HeartRate    float64 `json:"heart_rate"`    // bpm, 40-200
	Duration     float64 `json:"duration"`      // seconds, 10-300
	SamplingRate float64 `json:"sampling_rate"` // Hz
	Seed         int64   `json:"seed"`
}

// Allowed synthetic parameter bounds.
const (
	MinHeartRate = 40.0
	MaxHeartRate = 200.0
	MinDuration  = 10.0
	MaxDuration  = 300.0
)

// waveProfile controls beat-to-beat variability of the generated signal.
// Fast pulses synthesize irregular and noisy, slow pulses steady and clean,
// mid-range pulses strong and regular.
type waveProfile struct {
	hrVariability float64 // beat frequency modulation
	phaseJitter   float64 // rhythm timing irregularity
	ampVariation  float64 // amplitude envelope depth
	noiseLevel    float64 // additive gaussian noise
}

func profileForRate(heartRate float64) waveProfile {
	switch {
	case heartRate > 85:
		return waveProfile{hrVariability: 0.15, phaseJitter: 0.20, ampVariation: 0.25, noiseLevel: 0.15}
	case heartRate < 65:
		return waveProfile{hrVariability: 0.03, phaseJitter: 0.02, ampVariation: 0.05, noiseLevel: 0.05}
	default:
		return waveProfile{hrVariability: 0.05, phaseJitter: 0.05, ampVariation: 0.10, noiseLevel: 0.08}
	}
}

// Synthesize generates a pulse waveform as a fundamental sinusoid at the
// target rate plus a second harmonic, with seeded jitter and noise. The
// same params always produce the same waveform.
func Synthesize(p SyntheticParams) (RawWaveform, error) {
	if p.HeartRate < MinHeartRate || p.HeartRate > MaxHeartRate {
		return RawWaveform{}, errors.InvalidInput("heart rate must be between 40 and 200 bpm")
	}
	if p.Duration < MinDuration || p.Duration > MaxDuration {
		return RawWaveform{}, errors.InvalidInput("duration must be between 10 and 300 seconds")
	}
	if p.SamplingRate <= 0 {
		return RawWaveform{}, errors.InvalidInput("sampling rate must be positive")
	}

	rng := rand.New(rand.NewSource(p.Seed))
	profile := profileForRate(p.HeartRate)

	total := int(p.Duration * p.SamplingRate)
	baseFreq := p.HeartRate / 60.0
	samples := make([]float64, total)

	phase := 0.0
	for i := 0; i < total; i++ {
		t := float64(i) / p.SamplingRate

		// Beat-to-beat frequency modulation plus timing jitter.
		freq := baseFreq * (1 + rng.NormFloat64()*profile.hrVariability)
		phase += 2*math.Pi*freq/p.SamplingRate + rng.NormFloat64()*profile.phaseJitter/p.SamplingRate

		// Slow amplitude envelope approximating respiratory modulation.
		amp := 1.0 + profile.ampVariation*math.Sin(2*math.Pi*0.1*t)

		samples[i] = amp*(math.Sin(phase)+0.3*math.Sin(2*phase)) + rng.NormFloat64()*profile.noiseLevel
	}

	return RawWaveform{
		Samples:      samples,
		SamplingRate: p.SamplingRate,
		Duration:     p.Duration,
	}, nil
}

package pulse

import (
	"ayursense/internal/errors"
)

// RawWaveform is an ordered sequence of relative-amplitude samples captured
// at a fixed rate. It is created once (synthesis or capture ingest) and
// never mutated afterwards.
type RawWaveform struct {
	Samples      []float64 `json:"samples"`
	SamplingRate float64   `json:"sampling_rate"` // Hz
	Duration     float64   `json:"duration"`      // seconds
}

// NewRawWaveform builds a waveform from samples and a sampling rate,
// deriving the nominal duration.
func NewRawWaveform(samples []float64, samplingRate float64) (RawWaveform, error) {
	w := RawWaveform{
		Samples:      samples,
		SamplingRate: samplingRate,
	}
	if err := w.Validate(); err != nil {
		return RawWaveform{}, err
	}
	w.Duration = float64(len(samples)) / samplingRate
	return w, nil
}

// Validate rejects structurally invalid input. Short or noisy-but-non-empty
// signals are not errors; they degrade via the fallback feature vector.
func (w RawWaveform) Validate() error {
	if len(w.Samples) == 0 {
		return errors.InvalidInput("waveform has no samples")
	}
	if w.SamplingRate <= 0 {
		return errors.InvalidInput("waveform sampling rate must be positive")
	}
	return nil
}

// Feature name constants, in the fixed presentation order of FeatureNames.
const (
	FeatureHeartRate     = "heart_rate"
	FeatureMeanInterval  = "mean_interval"
	FeatureSDNN          = "sdnn"
	FeatureRMSSD         = "rmssd"
	FeaturePNN50         = "pnn50"
	FeatureLFPower       = "lf_power"
	FeatureHFPower       = "hf_power"
	FeatureLFHFRatio     = "lf_hf_ratio"
	FeatureSampleEntropy = "sample_entropy"
)

// FeatureNames is the canonical feature ordering.
var FeatureNames = []string{
	FeatureHeartRate,
	FeatureMeanInterval,
	FeatureSDNN,
	FeatureRMSSD,
	FeaturePNN50,
	FeatureLFPower,
	FeatureHFPower,
	FeatureLFHFRatio,
	FeatureSampleEntropy,
}

// FeatureVector holds the quantitative features extracted from one
// waveform, grouped into time-domain, frequency-domain and nonlinear
// families. Every value is finite.
type FeatureVector struct {
	// Time domain (beat-to-beat intervals, seconds)
	HeartRate    float64 `json:"heart_rate"` // bpm
	MeanInterval float64 `json:"mean_interval"`
	SDNN         float64 `json:"sdnn"`
	RMSSD        float64 `json:"rmssd"`
	PNN50        float64 `json:"pnn50"` // fraction of successive diffs > 50 ms

	// Frequency domain (interval-series spectrum)
	LFPower   float64 `json:"lf_power"` // 0.04-0.15 Hz
	HFPower   float64 `json:"hf_power"` // 0.15-0.40 Hz
	LFHFRatio float64 `json:"lf_hf_ratio"`

	// Nonlinear
	SampleEntropy float64 `json:"sample_entropy"`

	// Extraction metadata
	PeakCount  int  `json:"peak_count"`
	Degenerate bool `json:"degenerate"`
}

// Neutral fallback values used when too few peaks are detectable. The
// heart rate midpoint matches a resting adult default.
const (
	NeutralHeartRate    = 70.0
	NeutralMeanInterval = 60.0 / NeutralHeartRate
)

// NeutralFeatureVector is the documented degraded-input fallback: neutral
// midpoints, zero variability, Degenerate set.
func NeutralFeatureVector(peakCount int) FeatureVector {
	return FeatureVector{
		HeartRate:    NeutralHeartRate,
		MeanInterval: NeutralMeanInterval,
		PeakCount:    peakCount,
		Degenerate:   true,
	}
}

// Map returns the fixed-order name -> value view of the vector.
func (f FeatureVector) Map() map[string]float64 {
	return map[string]float64{
		FeatureHeartRate:     f.HeartRate,
		FeatureMeanInterval:  f.MeanInterval,
		FeatureSDNN:          f.SDNN,
		FeatureRMSSD:         f.RMSSD,
		FeaturePNN50:         f.PNN50,
		FeatureLFPower:       f.LFPower,
		FeatureHFPower:       f.HFPower,
		FeatureLFHFRatio:     f.LFHFRatio,
		FeatureSampleEntropy: f.SampleEntropy,
	}
}

// Values returns the vector in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	m := f.Map()
	out := make([]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		out[i] = m[name]
	}
	return out
}

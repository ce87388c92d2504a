// Package fusion combines independently produced modality results into one
// final dosha assessment using a confidence-weighted average.
package fusion

import (
	"ayursense/domain/dosha"
	"ayursense/internal/errors"
)

// Tunable fusion constants. These live here as named configuration, not as
// magic numbers inside the combination logic.
const (
	// Categories within this distance of the maximum are tied and resolved
	// by the canonical priority order.
	DefaultDominantEpsilon = 0.01

	// Imbalance gap thresholds, measured as dominant score minus the 1/3
	// balanced baseline. They correspond to dominant scores of 0.45 and
	// 0.60.
	DefaultModerateGap = 0.45 - 1.0/3.0
	DefaultSevereGap   = 0.60 - 1.0/3.0
)

// DefaultBaseWeights reflects the relative reliability of each modality:
// visual tongue diagnosis heaviest, pulse second, self-reported symptoms
// and voice supporting.
func DefaultBaseWeights() map[string]float64 {
	return map[string]float64{
		dosha.ModalityTongue:   0.40,
		dosha.ModalityPulse:    0.30,
		dosha.ModalitySymptoms: 0.20,
		dosha.ModalityVoice:    0.10,
	}
}

// Config holds the fusion policy knobs.
type Config struct {
	BaseWeights     map[string]float64
	DominantEpsilon float64
	ModerateGap     float64
	SevereGap       float64
}

// DefaultConfig returns the standard fusion configuration.
func DefaultConfig() Config {
	return Config{
		BaseWeights:     DefaultBaseWeights(),
		DominantEpsilon: DefaultDominantEpsilon,
		ModerateGap:     DefaultModerateGap,
		SevereGap:       DefaultSevereGap,
	}
}

// Engine fuses modality results. Stateless and safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates a fusion engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.BaseWeights == nil {
		cfg.BaseWeights = DefaultBaseWeights()
	}
	if cfg.DominantEpsilon <= 0 {
		cfg.DominantEpsilon = DefaultDominantEpsilon
	}
	if cfg.ModerateGap <= 0 {
		cfg.ModerateGap = DefaultModerateGap
	}
	if cfg.SevereGap <= cfg.ModerateGap {
		cfg.SevereGap = DefaultSevereGap
	}
	return &Engine{cfg: cfg}
}

// Fuse combines all present modality results into one FusionResult.
//
// Effective weights are base weight times reported confidence, renormalized
// across the present modalities only, so that an absent modality does not
// dilute the certainty of the evidence that was supplied. A malformed
// result aborts fusion with an error naming the modality; zero present
// results is a fatal NoModalityData condition.
func (e *Engine) Fuse(results []dosha.ModalityResult) (dosha.FusionResult, error) {
	present := make([]dosha.ModalityResult, 0, len(results))
	for _, r := range results {
		if r.Present {
			present = append(present, r)
		}
	}
	if len(present) == 0 {
		return dosha.FusionResult{}, errors.NoModalityData()
	}

	effective := make(map[string]float64, len(present))
	var totalWeight float64
	for _, r := range present {
		if err := r.Validate(); err != nil {
			return dosha.FusionResult{}, err
		}
		base, ok := e.cfg.BaseWeights[r.Modality]
		if !ok {
			return dosha.FusionResult{}, errors.InvalidModalityResult(r.Modality, "no base weight configured")
		}
		w := base * r.Confidence
		effective[r.Modality] = w
		totalWeight += w
	}

	// All-zero confidence still yields a result: fall back to equal
	// weighting across the present modalities.
	if totalWeight <= 0 {
		for m := range effective {
			effective[m] = 1.0 / float64(len(present))
		}
	} else {
		for m := range effective {
			effective[m] /= totalWeight
		}
	}

	combined := dosha.Scores{}
	perModality := make(map[string]dosha.Scores, len(present))
	var overallConfidence float64
	for _, r := range present {
		w := effective[r.Modality]
		for _, d := range dosha.CanonicalOrder {
			combined[d] += r.Scores[d] * w
		}
		perModality[r.Modality] = r.Scores.Copy()
		overallConfidence += r.Confidence * w
	}
	combined = combined.Normalized()

	dominant := combined.Dominant(e.cfg.DominantEpsilon)

	return dosha.FusionResult{
		Scores:      combined,
		Dominant:    dominant,
		Imbalance:   e.imbalanceLevel(combined[dominant]),
		WeightsUsed: effective,
		PerModality: perModality,
		Confidence:  overallConfidence,
	}, nil
}

// imbalanceLevel buckets the dominant score's gap above the balanced 1/3
// baseline.
func (e *Engine) imbalanceLevel(dominantScore float64) dosha.ImbalanceLevel {
	gap := dominantScore - 1.0/3.0
	switch {
	case gap < e.cfg.ModerateGap:
		return dosha.ImbalanceMild
	case gap < e.cfg.SevereGap:
		return dosha.ImbalanceModerate
	default:
		return dosha.ImbalanceSevere
	}
}

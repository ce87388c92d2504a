package dosha

import (
	"math"

	"ayursense/internal/errors"
)

// Dosha is one of the three constitutional categories every modality
// scores against.
type Dosha string

const (
	Vata  Dosha = "vata"
	Pitta Dosha = "pitta"
	Kapha Dosha = "kapha"
)

// CanonicalOrder is the fixed priority order used for deterministic
// tie-breaking: vata > pitta > kapha.
var CanonicalOrder = []Dosha{Vata, Pitta, Kapha}

// Modality name constants. Pulse is the only modality owned by this core;
// the rest are produced by external collaborators honoring the
// ModalityResult contract.
const (
	ModalityPulse    = "pulse"
	ModalityTongue   = "tongue"
	ModalitySymptoms = "symptoms"
	ModalityVoice    = "voice"
)

// SumTolerance is the allowed deviation of a score distribution's total
// from 1.0.
const SumTolerance = 1e-6

// Scores is a probability distribution over the three doshas.
// INVARIANTS:
// - Exactly the three canonical keys are present
// - Every value is in [0, 1]
// - Values sum to 1.0 within SumTolerance
type Scores map[Dosha]float64

// Uniform returns the balanced baseline distribution (1/3 each).
func Uniform() Scores {
	s := make(Scores, len(CanonicalOrder))
	for _, d := range CanonicalOrder {
		s[d] = 1.0 / float64(len(CanonicalOrder))
	}
	return s
}

// NewScores builds a distribution from raw non-negative weights,
// normalizing them to sum to 1. Zero total yields the uniform baseline.
func NewScores(vata, pitta, kapha float64) Scores {
	s := Scores{Vata: vata, Pitta: pitta, Kapha: kapha}
	return s.Normalized()
}

// Normalized returns a copy scaled to sum to 1.0. A degenerate all-zero
// input maps to the uniform baseline rather than dividing by zero.
func (s Scores) Normalized() Scores {
	var total float64
	for _, d := range CanonicalOrder {
		total += s[d]
	}
	if total <= 0 {
		return Uniform()
	}
	out := make(Scores, len(CanonicalOrder))
	for _, d := range CanonicalOrder {
		out[d] = s[d] / total
	}
	return out
}

// Copy returns an independent copy of the distribution.
func (s Scores) Copy() Scores {
	out := make(Scores, len(s))
	for d, v := range s {
		out[d] = v
	}
	return out
}

// Validate checks the distribution invariants.
func (s Scores) Validate() error {
	if len(s) != len(CanonicalOrder) {
		return errors.InvalidInput("score distribution must have exactly the three dosha keys")
	}
	var total float64
	for _, d := range CanonicalOrder {
		v, ok := s[d]
		if !ok {
			return errors.InvalidInput("score distribution is missing key " + string(d))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.InvalidInput("score for " + string(d) + " is not finite")
		}
		if v < 0 {
			return errors.InvalidInput("score for " + string(d) + " is negative")
		}
		total += v
	}
	if math.Abs(total-1.0) > SumTolerance {
		return errors.InvalidInput("score distribution does not sum to 1.0")
	}
	return nil
}

// Dominant returns the highest-scoring dosha. Categories within epsilon of
// the maximum are considered tied and resolved by CanonicalOrder.
func (s Scores) Dominant(epsilon float64) Dosha {
	max := math.Inf(-1)
	for _, d := range CanonicalOrder {
		if s[d] > max {
			max = s[d]
		}
	}
	for _, d := range CanonicalOrder {
		if max-s[d] <= epsilon {
			return d
		}
	}
	return CanonicalOrder[0]
}

// Entropy returns the Shannon entropy of the distribution in nats.
func (s Scores) Entropy() float64 {
	var h float64
	for _, d := range CanonicalOrder {
		if p := s[d]; p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h
}

// ModalityResult is the common output contract every diagnostic modality
// must produce. Present=false signals the modality was not supplied and
// must be excluded from fusion entirely, not treated as zero confidence.
type ModalityResult struct {
	Modality   string                 `json:"modality"`
	Scores     Scores                 `json:"scores"`
	Confidence float64                `json:"confidence"` // 0-1 certainty signal
	Explain    map[string]interface{} `json:"explain,omitempty"`
	Present    bool                   `json:"present"`
}

// Validate checks the contract for a present result. Violations name the
// offending modality so fusion never silently averages a bad input.
func (r ModalityResult) Validate() error {
	if r.Modality == "" {
		return errors.InvalidModalityResult("unknown", "modality name is empty")
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return errors.InvalidModalityResult(r.Modality, "confidence outside [0,1]")
	}
	if err := r.Scores.Validate(); err != nil {
		return errors.InvalidModalityResult(r.Modality, err.Error())
	}
	return nil
}

// ImbalanceLevel buckets how far the dominant dosha deviates from the
// balanced baseline. Values are fixed and stable for downstream consumers.
type ImbalanceLevel string

const (
	ImbalanceMild     ImbalanceLevel = "mild"
	ImbalanceModerate ImbalanceLevel = "moderate"
	ImbalanceSevere   ImbalanceLevel = "severe"
)

// FusionResult is the combined outcome of one consultation. It is computed
// fresh per consultation and never mutated after being returned.
type FusionResult struct {
	Scores      Scores             `json:"scores"`
	Dominant    Dosha              `json:"dominant_dosha"`
	Imbalance   ImbalanceLevel     `json:"imbalance_level"`
	WeightsUsed map[string]float64 `json:"weights_used"`
	PerModality map[string]Scores  `json:"per_modality"`
	Confidence  float64            `json:"confidence"`
}

// Package explain turns a fusion result plus per-modality metadata into a
// structured, renderable explanation. It is a pure formatting step: no
// probability or weight produced upstream is recomputed or altered here.
package explain

import (
	"fmt"

	"ayursense/domain/dosha"
)

// ConfidenceBand is the human label for an overall confidence value.
type ConfidenceBand string

const (
	BandHigh     ConfidenceBand = "high"
	BandModerate ConfidenceBand = "moderate"
	BandLow      ConfidenceBand = "low"
)

// Band thresholds. These are the composer's own labeling policy; the raw
// numeric confidence is always carried alongside so the presentation layer
// can apply its own mapping.
const (
	HighConfidenceThreshold     = 0.8
	ModerateConfidenceThreshold = 0.6
)

// ModalityContribution describes how one modality entered the final result.
type ModalityContribution struct {
	Modality     string                 `json:"modality"`
	Contribution string                 `json:"contribution"`
	Weight       float64                `json:"weight"`
	Scores       dosha.Scores           `json:"scores"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// Explanation is the renderable explanation tree for one assessment.
type Explanation struct {
	Summary        string                 `json:"summary"`
	Dominant       dosha.Dosha            `json:"dominant_dosha"`
	Imbalance      dosha.ImbalanceLevel   `json:"imbalance_level"`
	Confidence     float64                `json:"confidence"`
	ConfidenceBand ConfidenceBand         `json:"confidence_band"`
	Modalities     []ModalityContribution `json:"modalities"`
}

// Fixed display order and contribution labels per modality.
var modalityOrder = []string{
	dosha.ModalityTongue,
	dosha.ModalityPulse,
	dosha.ModalitySymptoms,
	dosha.ModalityVoice,
}

var contributionLabels = map[string]string{
	dosha.ModalityTongue:   "Visual features (color, coating)",
	dosha.ModalityPulse:    "Physiological rhythms",
	dosha.ModalitySymptoms: "Self-reported conditions",
	dosha.ModalityVoice:    "Vocal characteristics",
}

// Summary fragments keyed by dominant dosha and imbalance level.
var doshaFragments = map[dosha.Dosha]string{
	dosha.Vata:  "vata pattern, marked by irregularity, lightness and heightened activity",
	dosha.Pitta: "pitta pattern, marked by intensity, heat and sharp transitions",
	dosha.Kapha: "kapha pattern, marked by steadiness, heaviness and slow rhythms",
}

var imbalanceFragments = map[dosha.ImbalanceLevel]string{
	dosha.ImbalanceMild:     "a mild",
	dosha.ImbalanceModerate: "a moderate",
	dosha.ImbalanceSevere:   "a pronounced",
}

// Composer assembles explanations. Stateless.
type Composer struct{}

// NewComposer creates an explanation composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose builds the explanation for a fusion result. metadata maps
// modality name to the opaque explain payload that modality produced; it is
// passed through verbatim.
func (c *Composer) Compose(result dosha.FusionResult, metadata map[string]map[string]interface{}) Explanation {
	contributions := make([]ModalityContribution, 0, len(result.PerModality))
	for _, m := range modalityOrder {
		scores, ok := result.PerModality[m]
		if !ok {
			continue
		}
		contributions = append(contributions, ModalityContribution{
			Modality:     m,
			Contribution: contributionLabels[m],
			Weight:       result.WeightsUsed[m],
			Scores:       scores,
			Details:      metadata[m],
		})
	}

	return Explanation{
		Summary:        summaryFor(result.Dominant, result.Imbalance),
		Dominant:       result.Dominant,
		Imbalance:      result.Imbalance,
		Confidence:     result.Confidence,
		ConfidenceBand: bandFor(result.Confidence),
		Modalities:     contributions,
	}
}

func summaryFor(dominant dosha.Dosha, level dosha.ImbalanceLevel) string {
	return fmt.Sprintf(
		"The assessment identified %s %s, based on the weighted aggregation of the supplied diagnostic modalities.",
		imbalanceFragments[level], doshaFragments[dominant],
	)
}

func bandFor(confidence float64) ConfidenceBand {
	switch {
	case confidence >= HighConfidenceThreshold:
		return BandHigh
	case confidence >= ModerateConfidenceThreshold:
		return BandModerate
	default:
		return BandLow
	}
}

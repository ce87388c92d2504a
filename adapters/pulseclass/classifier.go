// Package pulseclass scores a pulse waveform against the three doshas.
//
// Two pathways feed one fixed linear scoring layer: a sequence pathway
// (downsampled waveform through shape kernels) captures temporal form, and
// a feature pathway consumes the standardized HRV feature vector. The
// weights are a deterministic encoding of classical pulse reading: fast
// irregular high-entropy pulses score vata, strong sharp regular pulses
// score pitta, slow steady low-variability pulses score kapha.
package pulseclass

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"ayursense/domain/dosha"
	"ayursense/domain/pulse"
)

const (
	// Downsampled sequence length consumed by the shape kernels.
	seqLen = 64

	// Confidence ceiling applied when the feature extractor flagged the
	// waveform as degenerate. A near-flat or too-short signal must never
	// look confidently classified.
	DegenerateConfidenceCap = 0.4

	// Standardized inputs are clamped to this many deviations.
	zClamp = 3.0
)

// Shape kernels applied to the normalized downsampled waveform. Each output
// is ReLU-activated and globally mean-pooled.
var shapeKernels = [][]float64{
	{-1.0, -0.5, 0.0, 0.5, 1.0},  // rising edge
	{1.0, 0.5, 0.0, -0.5, -1.0},  // falling edge
	{-1.0, 0.5, 1.0, 0.5, -1.0},  // peak template
	{1.0, -0.5, -1.0, -0.5, 1.0}, // trough curvature
}

// Per-feature standardization constants, in pulse.FeatureNames order:
// heart_rate, mean_interval, sdnn, rmssd, pnn50, lf, hf, lf_hf, entropy.
var (
	featureCenters = []float64{70.0, 0.857, 0.05, 0.05, 0.20, 0.50, 0.50, 1.5, 0.50}
	featureScales  = []float64{20.0, 0.300, 0.05, 0.05, 0.20, 1.00, 1.00, 2.0, 0.50}
)

// Scoring layer: one row per dosha over the 13-dim concatenated embedding
// (9 standardized features then 4 pooled kernel responses).
var scoreWeights = []float64{
	// vata: fast, variable, irregular, high complexity
	0.8, -0.3, 0.9, 0.9, 0.7, 0.1, -0.2, 0.4, 0.9, 0.1, 0.1, -0.1, 0.3,
	// pitta: moderately fast, strong sharp upstroke, sympathetic-dominant
	0.4, -0.1, -0.2, -0.2, -0.1, 0.6, -0.1, 0.6, -0.1, 0.5, 0.4, 0.6, 0.0,
	// kapha: slow, steady, parasympathetic-dominant
	-0.8, 0.3, -0.7, -0.7, -0.5, -0.2, 0.6, -0.5, -0.6, 0.0, 0.0, -0.2, -0.2,
}

// Classifier turns a waveform plus its feature vector into a pulse
// ModalityResult. Stateless and safe for concurrent use.
type Classifier struct {
	weights *mat.Dense
}

// NewClassifier creates a pulse classifier with the fixed scoring weights.
func NewClassifier() *Classifier {
	return &Classifier{
		weights: mat.NewDense(len(dosha.CanonicalOrder), len(pulse.FeatureNames)+len(shapeKernels), scoreWeights),
	}
}

// Classify produces the pulse modality result. The waveform must be the
// same signal the features were extracted from.
func (c *Classifier) Classify(w pulse.RawWaveform, f pulse.FeatureVector) (dosha.ModalityResult, error) {
	if err := w.Validate(); err != nil {
		return dosha.ModalityResult{}, err
	}

	embedding := append(standardizeFeatures(f), c.sequenceEmbedding(w.Samples)...)

	x := mat.NewVecDense(len(embedding), embedding)
	scores := mat.NewVecDense(len(dosha.CanonicalOrder), nil)
	scores.MulVec(c.weights, x)

	probs := softmax(scores.RawVector().Data)
	distribution := dosha.Scores{
		dosha.Vata:  probs[0],
		dosha.Pitta: probs[1],
		dosha.Kapha: probs[2],
	}

	confidence := confidenceFrom(distribution)
	if f.Degenerate && confidence > DegenerateConfidenceCap {
		confidence = DegenerateConfidenceCap
	}

	return dosha.ModalityResult{
		Modality:   dosha.ModalityPulse,
		Scores:     distribution,
		Confidence: confidence,
		Explain:    explainMetadata(f, distribution),
		Present:    true,
	}, nil
}

// sequenceEmbedding mean-pools the waveform to seqLen points, normalizes
// the segment shape, and returns the pooled ReLU response of each kernel.
func (c *Classifier) sequenceEmbedding(samples []float64) []float64 {
	seq := downsample(samples, seqLen)
	normalizeInPlace(seq)

	out := make([]float64, len(shapeKernels))
	for k, kernel := range shapeKernels {
		n := len(seq) - len(kernel) + 1
		if n <= 0 {
			continue
		}
		var pooled float64
		for i := 0; i < n; i++ {
			var acc float64
			for j, kv := range kernel {
				acc += kv * seq[i+j]
			}
			if acc > 0 { // ReLU
				pooled += acc
			}
		}
		out[k] = pooled / float64(n)
	}
	return out
}

func downsample(samples []float64, target int) []float64 {
	if len(samples) <= target {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}
	out := make([]float64, target)
	for i := 0; i < target; i++ {
		lo := i * len(samples) / target
		hi := (i + 1) * len(samples) / target
		var sum float64
		for j := lo; j < hi; j++ {
			sum += samples[j]
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func normalizeInPlace(seq []float64) {
	if len(seq) == 0 {
		return
	}
	var mean float64
	for _, v := range seq {
		mean += v
	}
	mean /= float64(len(seq))

	var variance float64
	for _, v := range seq {
		variance += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(variance / float64(len(seq)))
	if sd == 0 {
		sd = 1
	}
	for i := range seq {
		seq[i] = (seq[i] - mean) / sd
	}
}

func standardizeFeatures(f pulse.FeatureVector) []float64 {
	values := f.Values()
	out := make([]float64, len(values))
	for i, v := range values {
		z := (v - featureCenters[i]) / featureScales[i]
		if z > zClamp {
			z = zClamp
		}
		if z < -zClamp {
			z = -zClamp
		}
		out[i] = z
	}
	return out
}

// softmax converts unnormalized scores to probabilities, subtracting the
// max before exponentiating for numerical stability.
func softmax(scores []float64) []float64 {
	max := math.Inf(-1)
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// confidenceFrom derives certainty from distribution peakedness: exactly
// 1.0 for a one-hot distribution, 1/3 at uniform, monotone in between.
func confidenceFrom(s dosha.Scores) float64 {
	max := 0.0
	for _, d := range dosha.CanonicalOrder {
		if s[d] > max {
			max = s[d]
		}
	}
	return max
}

func explainMetadata(f pulse.FeatureVector, s dosha.Scores) map[string]interface{} {
	meta := map[string]interface{}{
		"features":    f.Map(),
		"peak_count":  f.PeakCount,
		"degenerate":  f.Degenerate,
		"rhythm_type": rhythmType(f),
	}
	if reasons := supportingIndicators(f, s.Dominant(0)); len(reasons) > 0 {
		meta["indicators"] = reasons
	}
	return meta
}

// rhythmType buckets the coefficient of variation of the beat intervals.
func rhythmType(f pulse.FeatureVector) string {
	if f.Degenerate || f.MeanInterval <= 0 {
		return "insufficient_data"
	}
	cv := f.SDNN / f.MeanInterval * 100
	switch {
	case cv > 10:
		return "irregular"
	case cv < 5:
		return "regular"
	default:
		return "moderate"
	}
}

// supportingIndicators lists the pulse characteristics that argue for the
// leading dosha, mirroring a practitioner's reading of the same signal.
func supportingIndicators(f pulse.FeatureVector, leading dosha.Dosha) []string {
	var reasons []string
	switch leading {
	case dosha.Vata:
		if f.HeartRate > 80 {
			reasons = append(reasons, "elevated heart rate")
		}
		if f.SDNN > 0.05 {
			reasons = append(reasons, "high beat-to-beat variability")
		}
		if f.SampleEntropy > 0.5 {
			reasons = append(reasons, "irregular rhythm complexity")
		}
	case dosha.Pitta:
		if f.HeartRate > 75 {
			reasons = append(reasons, "strong, fast pulse")
		}
		if f.LFHFRatio > 2.0 {
			reasons = append(reasons, "sympathetic dominance")
		}
	case dosha.Kapha:
		if f.HeartRate < 65 {
			reasons = append(reasons, "slow, steady pulse")
		}
		if f.SDNN < 0.03 {
			reasons = append(reasons, "low beat-to-beat variability")
		}
	}
	return reasons
}

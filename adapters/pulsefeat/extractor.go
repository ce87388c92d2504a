// Package pulsefeat extracts quantitative HRV-style features from a raw
// pulse waveform: beat detection, time-domain statistics, spectral band
// powers over the interval series, and a sample-entropy irregularity
// measure.
package pulsefeat

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/dsp/fourier"

	"ayursense/domain/pulse"
)

const (
	// No two peaks closer than this fraction of a second, i.e. a maximum
	// plausible rate of 150 bpm. Keeps noise bumps from double-counting.
	minPeakSpacingSec = 0.4

	// Minimum prominence for a local maximum to count as a beat, in the
	// waveform's relative amplitude units.
	minProminence = 0.1

	// Bandpass smoothing applied before peak detection. The short moving
	// average rejects additive noise above a few Hz; subtracting the long
	// one removes baseline wander below ~0.5 Hz. Together they bracket the
	// plausible beat band.
	smoothWindowSec   = 0.15
	baselineWindowSec = 2.0

	// Successive-difference threshold for the pNN50-equivalent fraction.
	pnnThresholdSec = 0.05

	// Uniform grid rate for resampling the interval series before the
	// spectral estimate.
	resampleRateHz = 4.0

	// HRV band edges (Hz).
	lfLow  = 0.04
	lfHigh = 0.15
	hfLow  = 0.15
	hfHigh = 0.40

	// LF/HF is capped here instead of returning infinity when HF power
	// vanishes.
	maxLFHFRatio = 1000.0

	// Sample entropy parameters and bound.
	entropyPatternLen = 2
	entropyTolerance  = 0.2 // fraction of interval std dev
	maxSampleEntropy  = 10.0

	// Fewer detected peaks than this triggers the neutral fallback vector.
	minPeaksRequired = 3
)

// Extractor converts raw waveforms into feature vectors. It is stateless
// and safe for concurrent use.
type Extractor struct{}

// NewExtractor creates a waveform feature extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the feature vector for a waveform. Structurally invalid
// input (no samples, non-positive rate) is rejected; a waveform with fewer
// than three detectable peaks degrades to the neutral fallback vector with
// Degenerate set, which is not an error.
func (e *Extractor) Extract(w pulse.RawWaveform) (pulse.FeatureVector, error) {
	if err := w.Validate(); err != nil {
		return pulse.FeatureVector{}, err
	}

	peaks := detectPeaks(w.Samples, w.SamplingRate)
	if len(peaks) < minPeaksRequired {
		return pulse.NeutralFeatureVector(len(peaks)), nil
	}

	intervals := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		intervals[i-1] = float64(peaks[i]-peaks[i-1]) / w.SamplingRate
	}

	meanInterval, _ := stats.Mean(intervals)
	sdnn, _ := stats.StandardDeviation(intervals)

	heartRate := 0.0
	if meanInterval > 0 {
		heartRate = 60.0 / meanInterval
	}

	rmssd, pnn := successiveDifferences(intervals)
	lf, hf := bandPowers(intervals)
	entropy := sampleEntropy(intervals, entropyPatternLen, entropyTolerance)

	fv := pulse.FeatureVector{
		HeartRate:     finite(heartRate),
		MeanInterval:  finite(meanInterval),
		SDNN:          finite(sdnn),
		RMSSD:         finite(rmssd),
		PNN50:         finite(pnn),
		LFPower:       finite(lf),
		HFPower:       finite(hf),
		LFHFRatio:     finite(ratioCapped(lf, hf)),
		SampleEntropy: finite(entropy),
		PeakCount:     len(peaks),
	}
	return fv, nil
}

// detectPeaks band-limits the signal to the plausible beat band, finds
// local maxima with sufficient prominence, then enforces the minimum
// spacing keeping the taller peak of any conflicting pair. Detecting on
// the raw signal would let noise bumps between beats pass both checks.
// Returned indices are ascending.
func detectPeaks(samples []float64, samplingRate float64) []int {
	filtered := bandpass(samples, samplingRate)

	minDist := int(minPeakSpacingSec * samplingRate)
	if minDist < 1 {
		minDist = 1
	}

	var candidates []int
	for i := 1; i < len(filtered)-1; i++ {
		if filtered[i] > filtered[i-1] && filtered[i] >= filtered[i+1] {
			if prominence(filtered, i) >= minProminence {
				candidates = append(candidates, i)
			}
		}
	}

	// Tallest first, so spacing conflicts resolve in favor of real beats.
	sort.Slice(candidates, func(a, b int) bool {
		return filtered[candidates[a]] > filtered[candidates[b]]
	})

	var accepted []int
	for _, c := range candidates {
		ok := true
		for _, a := range accepted {
			if abs(c-a) < minDist {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, c)
		}
	}

	sort.Ints(accepted)
	return accepted
}

// bandpass approximates a 0.5-5 Hz passband with cascaded moving
// averages: smoothing attenuates high-frequency noise, and subtracting
// the longer baseline average removes slow drift.
func bandpass(samples []float64, samplingRate float64) []float64 {
	smoothed := movingAverage(samples, windowSamples(samplingRate, smoothWindowSec))
	baseline := movingAverage(smoothed, windowSamples(samplingRate, baselineWindowSec))
	out := make([]float64, len(samples))
	for i := range out {
		out[i] = smoothed[i] - baseline[i]
	}
	return out
}

// windowSamples converts a window duration to an odd sample count so the
// moving average stays centered.
func windowSamples(samplingRate, seconds float64) int {
	n := int(samplingRate * seconds)
	if n < 1 {
		n = 1
	}
	if n%2 == 0 {
		n++
	}
	return n
}

// movingAverage is a centered mean with the window truncated at the edges.
func movingAverage(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	if window <= 1 {
		copy(out, x)
		return out
	}
	prefix := make([]float64, len(x)+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}
	half := window / 2
	for i := range x {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(x)-1 {
			hi = len(x) - 1
		}
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(hi-lo+1)
	}
	return out
}

// prominence measures how far a peak rises above the higher of the valleys
// separating it from taller terrain on either side.
func prominence(samples []float64, peak int) float64 {
	height := samples[peak]

	leftMin := height
	for i := peak - 1; i >= 0; i-- {
		if samples[i] > height {
			break
		}
		if samples[i] < leftMin {
			leftMin = samples[i]
		}
	}

	rightMin := height
	for i := peak + 1; i < len(samples); i++ {
		if samples[i] > height {
			break
		}
		if samples[i] < rightMin {
			rightMin = samples[i]
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return height - base
}

// successiveDifferences computes RMSSD and the pNN50-equivalent fraction
// over the beat-to-beat interval series.
func successiveDifferences(intervals []float64) (rmssd, pnn float64) {
	if len(intervals) < 2 {
		return 0, 0
	}
	var sumSq float64
	var above int
	for i := 1; i < len(intervals); i++ {
		d := intervals[i] - intervals[i-1]
		sumSq += d * d
		if math.Abs(d) > pnnThresholdSec {
			above++
		}
	}
	n := float64(len(intervals) - 1)
	return math.Sqrt(sumSq / n), float64(above) / n
}

// bandPowers resamples the interval series onto a uniform grid, removes the
// mean, and integrates spectral power inside the LF and HF bands.
func bandPowers(intervals []float64) (lf, hf float64) {
	series := resampleIntervals(intervals, resampleRateHz)
	if len(series) < 8 {
		return 0, 0
	}

	mean, _ := stats.Mean(series)
	detrended := make([]float64, len(series))
	for i, v := range series {
		detrended[i] = v - mean
	}

	fft := fourier.NewFFT(len(detrended))
	coeffs := fft.Coefficients(nil, detrended)
	for i, c := range coeffs {
		freq := fft.Freq(i) * resampleRateHz
		power := cmplx.Abs(c) * cmplx.Abs(c)
		switch {
		case freq >= lfLow && freq < lfHigh:
			lf += power
		case freq >= hfLow && freq < hfHigh:
			hf += power
		}
	}
	return lf, hf
}

// resampleIntervals places each interval at the time of its closing beat
// and linearly interpolates onto a uniform grid.
func resampleIntervals(intervals []float64, rateHz float64) []float64 {
	if len(intervals) < 2 {
		return nil
	}

	times := make([]float64, len(intervals))
	t := 0.0
	for i, iv := range intervals {
		t += iv
		times[i] = t
	}

	span := times[len(times)-1] - times[0]
	n := int(span * rateHz)
	if n < 2 {
		return nil
	}

	out := make([]float64, n)
	seg := 0
	for i := 0; i < n; i++ {
		tt := times[0] + float64(i)/rateHz
		for seg < len(times)-2 && times[seg+1] < tt {
			seg++
		}
		t0, t1 := times[seg], times[seg+1]
		v0, v1 := intervals[seg], intervals[seg+1]
		if t1 == t0 {
			out[i] = v0
			continue
		}
		frac := (tt - t0) / (t1 - t0)
		out[i] = v0 + frac*(v1-v0)
	}
	return out
}

// sampleEntropy estimates the irregularity of the interval series: the
// negative log conditional probability that sequences matching for m
// points also match for m+1. Deterministic and bounded to [0, max].
func sampleEntropy(data []float64, m int, rFrac float64) float64 {
	n := len(data)
	if n < m+2 {
		return 0
	}

	sd, _ := stats.StandardDeviation(data)
	if sd == 0 {
		return 0
	}
	r := rFrac * sd

	phi := func(m int) float64 {
		count := 0
		total := n - m
		for i := 0; i < total; i++ {
			for j := 0; j < total; j++ {
				if i == j {
					continue
				}
				matched := true
				for k := 0; k < m; k++ {
					if math.Abs(data[i+k]-data[j+k]) > r {
						matched = false
						break
					}
				}
				if matched {
					count++
				}
			}
		}
		return float64(count) / float64(total)
	}

	phiM := phi(m)
	phiM1 := phi(m + 1)
	if phiM == 0 || phiM1 == 0 {
		return 0
	}

	se := -math.Log(phiM1 / phiM)
	if se < 0 {
		se = 0
	}
	if se > maxSampleEntropy {
		se = maxSampleEntropy
	}
	return se
}

// ratioCapped guards the LF/HF division against a vanishing denominator.
func ratioCapped(lf, hf float64) float64 {
	if hf < 1e-12 {
		if lf < 1e-12 {
			return 0
		}
		return maxLFHFRatio
	}
	ratio := lf / hf
	if ratio > maxLFHFRatio {
		ratio = maxLFHFRatio
	}
	return ratio
}

// finite maps NaN/Inf to 0 so every emitted feature is finite.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

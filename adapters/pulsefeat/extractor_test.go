package pulsefeat

import (
	"math"
	"math/rand"
	"testing"

	"ayursense/domain/pulse"
	"ayursense/internal/errors"
)

func sineWaveform(t *testing.T, bpm, durationSec, samplingRate float64) pulse.RawWaveform {
	t.Helper()
	n := int(durationSec * samplingRate)
	freq := bpm / 60.0
	samples := make([]float64, n)
	for i := range samples {
		tt := float64(i) / samplingRate
		samples[i] = math.Sin(2*math.Pi*freq*tt) + 0.3*math.Sin(4*math.Pi*freq*tt)
	}
	w, err := pulse.NewRawWaveform(samples, samplingRate)
	if err != nil {
		t.Fatalf("building waveform: %v", err)
	}
	return w
}

func TestExtract_RejectsStructurallyInvalidInput(t *testing.T) {
	e := NewExtractor()

	if _, err := e.Extract(pulse.RawWaveform{Samples: nil, SamplingRate: 50}); err == nil {
		t.Error("expected error for empty samples")
	}
	_, err := e.Extract(pulse.RawWaveform{Samples: []float64{1, 2}, SamplingRate: -1})
	if err == nil {
		t.Fatal("expected error for negative sampling rate")
	}
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", errors.GetCode(err))
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewExtractor()
	w := sineWaveform(t, 70, 60, 50)

	a, err := e.Extract(w)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	b, err := e.Extract(w)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if a != b {
		t.Errorf("identical input produced different feature vectors:\n%+v\n%+v", a, b)
	}
}

func TestExtract_RoundTripRecoversRate(t *testing.T) {
	e := NewExtractor()

	for _, bpm := range []float64{50, 70, 90} {
		w := sineWaveform(t, bpm, 60, 50)
		fv, err := e.Extract(w)
		if err != nil {
			t.Fatalf("extract failed at %v bpm: %v", bpm, err)
		}
		if fv.Degenerate {
			t.Fatalf("periodic waveform at %v bpm flagged degenerate (peaks=%d)", bpm, fv.PeakCount)
		}

		wantInterval := 60.0 / bpm
		if math.Abs(fv.MeanInterval-wantInterval) > wantInterval*0.1 {
			t.Errorf("bpm %v: mean interval %f, want ~%f", bpm, fv.MeanInterval, wantInterval)
		}
		if math.Abs(fv.HeartRate-bpm) > bpm*0.1 {
			t.Errorf("bpm %v: recovered rate %f", bpm, fv.HeartRate)
		}
	}
}

func TestExtract_RecoversSyntheticRateAcrossRegimes(t *testing.T) {
	e := NewExtractor()

	// One rate per generator regime: steady (<65), moderate, and the
	// noisy fast regime (>85). The extractor must recover the target rate
	// from the generator's own jittered, noisy output.
	for _, bpm := range []float64{50, 72, 100} {
		for seed := int64(1); seed <= 3; seed++ {
			w, err := pulse.Synthesize(pulse.SyntheticParams{
				HeartRate:    bpm,
				Duration:     60,
				SamplingRate: 50,
				Seed:         seed,
			})
			if err != nil {
				t.Fatalf("synthesize %v bpm seed %d: %v", bpm, seed, err)
			}

			fv, err := e.Extract(w)
			if err != nil {
				t.Fatalf("extract %v bpm seed %d: %v", bpm, seed, err)
			}
			if fv.Degenerate {
				t.Fatalf("%v bpm seed %d: flagged degenerate (peaks=%d)", bpm, seed, fv.PeakCount)
			}
			if math.Abs(fv.HeartRate-bpm) > bpm*0.1 {
				t.Errorf("%v bpm seed %d: recovered %f bpm", bpm, seed, fv.HeartRate)
			}
		}
	}
}

func TestExtract_NoisySignalNotDoubleCounted(t *testing.T) {
	e := NewExtractor()

	// 50 bpm for 30s is 25 beats. Additive noise between beats must not
	// register as extra peaks and inflate the count.
	const (
		bpm        = 50.0
		duration   = 30.0
		rate       = 50.0
		noiseSigma = 0.08
	)
	rng := rand.New(rand.NewSource(17))
	freq := bpm / 60.0
	samples := make([]float64, int(duration*rate))
	for i := range samples {
		tt := float64(i) / rate
		samples[i] = math.Sin(2*math.Pi*freq*tt) + 0.3*math.Sin(4*math.Pi*freq*tt) + rng.NormFloat64()*noiseSigma
	}
	w, err := pulse.NewRawWaveform(samples, rate)
	if err != nil {
		t.Fatalf("building waveform: %v", err)
	}

	fv, err := e.Extract(w)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if fv.PeakCount < 23 || fv.PeakCount > 27 {
		t.Errorf("expected ~25 peaks, got %d", fv.PeakCount)
	}
	if math.Abs(fv.HeartRate-bpm) > bpm*0.1 {
		t.Errorf("recovered rate %f, want ~%v bpm", fv.HeartRate, bpm)
	}
}

func TestExtract_PeakCountMatchesBeats(t *testing.T) {
	e := NewExtractor()
	w := sineWaveform(t, 60, 30, 50) // one beat per second for 30s

	fv, err := e.Extract(w)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if fv.PeakCount < 28 || fv.PeakCount > 31 {
		t.Errorf("expected ~30 peaks, got %d", fv.PeakCount)
	}
}

func TestExtract_FlatSignalDegradesGracefully(t *testing.T) {
	e := NewExtractor()

	samples := make([]float64, 500)
	w, err := pulse.NewRawWaveform(samples, 50)
	if err != nil {
		t.Fatalf("building waveform: %v", err)
	}

	fv, err := e.Extract(w)
	if err != nil {
		t.Fatalf("flat signal must not error: %v", err)
	}
	if !fv.Degenerate {
		t.Error("flat signal should produce the degenerate fallback vector")
	}
	if fv.HeartRate != pulse.NeutralHeartRate {
		t.Errorf("fallback heart rate should be neutral, got %f", fv.HeartRate)
	}
}

func TestExtract_AllFeaturesFinite(t *testing.T) {
	e := NewExtractor()
	w := sineWaveform(t, 80, 60, 50)

	fv, err := e.Extract(w)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	for name, v := range fv.Map() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("feature %s is not finite: %f", name, v)
		}
	}
}

func TestRatioCapped(t *testing.T) {
	if got := ratioCapped(1.0, 0); got != maxLFHFRatio {
		t.Errorf("vanishing HF should cap the ratio, got %f", got)
	}
	if got := ratioCapped(0, 0); got != 0 {
		t.Errorf("zero power should yield zero ratio, got %f", got)
	}
	if got := ratioCapped(2, 4); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("expected plain ratio 0.5, got %f", got)
	}
}

func TestSampleEntropy_Bounds(t *testing.T) {
	constant := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	if got := sampleEntropy(constant, 2, 0.2); got != 0 {
		t.Errorf("constant series should have zero entropy, got %f", got)
	}

	alternating := make([]float64, 40)
	for i := range alternating {
		if i%3 == 0 {
			alternating[i] = 1.0
		} else if i%3 == 1 {
			alternating[i] = 0.2
		} else {
			alternating[i] = 0.7
		}
	}
	got := sampleEntropy(alternating, 2, 0.2)
	if got < 0 || got > maxSampleEntropy {
		t.Errorf("entropy out of bounds: %f", got)
	}
}

func TestSuccessiveDifferences(t *testing.T) {
	intervals := []float64{1.0, 1.1, 1.0, 1.02}
	rmssd, pnn := successiveDifferences(intervals)

	if rmssd <= 0 {
		t.Errorf("expected positive RMSSD, got %f", rmssd)
	}
	// Two of three successive differences exceed 50 ms.
	if math.Abs(pnn-2.0/3.0) > 1e-9 {
		t.Errorf("expected pNN fraction 2/3, got %f", pnn)
	}
}

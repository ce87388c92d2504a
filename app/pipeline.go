package app

import (
	"context"

	"ayursense/adapters/pulseclass"
	"ayursense/adapters/pulsefeat"
	"ayursense/domain/dosha"
	"ayursense/domain/pulse"
	"ayursense/internal/cache"
	"ayursense/ports"
)

// PulsePipeline chains feature extraction and classification for the pulse
// modality, with an optional injected result cache keyed by waveform
// content hash.
type PulsePipeline struct {
	extractor  *pulsefeat.Extractor
	classifier *pulseclass.Classifier
	cache      ports.AnalysisCachePort
}

// NewPulsePipeline creates the pulse analysis pipeline. resultCache may be
// nil to disable caching.
func NewPulsePipeline(resultCache ports.AnalysisCachePort) *PulsePipeline {
	return &PulsePipeline{
		extractor:  pulsefeat.NewExtractor(),
		classifier: pulseclass.NewClassifier(),
		cache:      resultCache,
	}
}

// Analyze runs extraction then classification for one waveform. Identical
// waveforms are served from the cache when one is configured.
func (p *PulsePipeline) Analyze(ctx context.Context, w pulse.RawWaveform) (dosha.ModalityResult, error) {
	if err := w.Validate(); err != nil {
		return dosha.ModalityResult{}, err
	}

	var key string
	if p.cache != nil {
		key = cache.WaveformKey(w)
		if cached, ok := p.cache.Get(key); ok {
			return cached, nil
		}
	}

	features, err := p.extractor.Extract(w)
	if err != nil {
		return dosha.ModalityResult{}, err
	}

	result, err := p.classifier.Classify(w, features)
	if err != nil {
		return dosha.ModalityResult{}, err
	}

	if p.cache != nil {
		p.cache.Put(key, result)
	}
	return result, nil
}

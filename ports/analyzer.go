package ports

import (
	"context"

	"ayursense/domain/dosha"
	"ayursense/domain/pulse"
)

// PulseAnalyzerPort runs the full pulse pathway (feature extraction plus
// classification) for one waveform.
type PulseAnalyzerPort interface {
	Analyze(ctx context.Context, w pulse.RawWaveform) (dosha.ModalityResult, error)
}

// AnalysisCachePort is an injectable, bounded cache of modality results
// keyed by a content hash of the input. It is owned by the orchestration
// layer; the core components stay pure.
type AnalysisCachePort interface {
	Get(key string) (dosha.ModalityResult, bool)
	Put(key string, result dosha.ModalityResult)
}

// WaveformReaderPort ingests a captured waveform from an external export
// file.
type WaveformReaderPort interface {
	Read(path string, samplingRate float64) (pulse.RawWaveform, error)
}

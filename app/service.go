// Package app orchestrates consultations: it fans modality analyses out
// concurrently, applies the timeout-means-absent policy, and joins the
// results for fusion and explanation. The core components it calls stay
// synchronous and pure.
package app

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ayursense/domain/dosha"
	"ayursense/domain/explain"
	"ayursense/domain/fusion"
	"ayursense/domain/pulse"
	"ayursense/internal"
	"ayursense/ports"
)

// Assessment bundles the fusion outcome with its renderable explanation.
type Assessment struct {
	Fusion      dosha.FusionResult  `json:"fusion"`
	Explanation explain.Explanation `json:"explanation"`
}

// AssessmentRequest carries the inputs for one ad-hoc assessment: an
// optional raw pulse waveform (analyzed by this core) and any
// externally-produced modality results.
type AssessmentRequest struct {
	Waveform *pulse.RawWaveform
	External []dosha.ModalityResult
}

// Service is the consultation orchestration layer.
type Service struct {
	pulse    ports.PulseAnalyzerPort
	fuser    *fusion.Engine
	composer *explain.Composer
	store    *ConsultationStore
	timeout  time.Duration
	log      *internal.Logger
}

// NewService wires the orchestration service. timeout bounds each modality
// analysis; a slower analysis is treated as absent rather than blocking
// fusion.
func NewService(analyzer ports.PulseAnalyzerPort, fuser *fusion.Engine, timeout time.Duration, log *internal.Logger) *Service {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Service{
		pulse:    analyzer,
		fuser:    fuser,
		composer: explain.NewComposer(),
		store:    NewConsultationStore(),
		timeout:  timeout,
		log:      log,
	}
}

// Assess runs all supplied modalities concurrently, fuses the joined
// results, and composes the explanation. Structural input errors and
// contract violations propagate unmodified; only a timeout downgrades a
// modality to absent.
func (s *Service) Assess(ctx context.Context, req AssessmentRequest) (*Assessment, error) {
	var mu sync.Mutex
	var results []dosha.ModalityResult

	collect := func(r dosha.ModalityResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	if req.Waveform != nil {
		w := *req.Waveform
		g.Go(func() error {
			r, err := s.analyzePulse(gctx, w)
			if err != nil {
				return err
			}
			collect(r)
			return nil
		})
	}

	for _, ext := range req.External {
		ext := ext
		g.Go(func() error {
			if ext.Present {
				if err := ext.Validate(); err != nil {
					return err
				}
			}
			collect(ext)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.finish(results)
}

// analyzePulse runs the pulse pipeline under the per-modality budget. The
// pipeline itself has no cancellation; on timeout the in-flight analysis is
// abandoned and the modality reported absent.
func (s *Service) analyzePulse(ctx context.Context, w pulse.RawWaveform) (dosha.ModalityResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		result dosha.ModalityResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := s.pulse.Analyze(ctx, w)
		done <- outcome{result: r, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		s.log.Warn("pulse analysis exceeded %s, treating modality as absent", s.timeout)
		return dosha.ModalityResult{Modality: dosha.ModalityPulse, Present: false}, nil
	}
}

// finish fuses collected results and composes the explanation.
func (s *Service) finish(results []dosha.ModalityResult) (*Assessment, error) {
	fused, err := s.fuser.Fuse(results)
	if err != nil {
		return nil, err
	}

	metadata := make(map[string]map[string]interface{})
	for _, r := range results {
		if r.Present && r.Explain != nil {
			metadata[r.Modality] = r.Explain
		}
	}

	assessment := &Assessment{
		Fusion:      fused,
		Explanation: s.composer.Compose(fused, metadata),
	}
	s.log.Info("assessment complete: dominant=%s imbalance=%s confidence=%.2f",
		fused.Dominant, fused.Imbalance, fused.Confidence)
	return assessment, nil
}

// CreateConsultation opens a new consultation session.
func (s *Service) CreateConsultation() *Consultation {
	c := s.store.Create()
	s.log.Info("created consultation %s", c.ID)
	return c
}

// GetConsultation returns a consultation by ID.
func (s *Service) GetConsultation(id string) (*Consultation, error) {
	return s.store.Get(id)
}

// AttachPulse analyzes a waveform and records the pulse result on the
// consultation.
func (s *Service) AttachPulse(ctx context.Context, id string, w pulse.RawWaveform) (*Consultation, error) {
	result, err := s.analyzePulse(ctx, w)
	if err != nil {
		return nil, err
	}
	return s.attach(id, result)
}

// AttachModality records an externally-produced modality result on the
// consultation after contract validation.
func (s *Service) AttachModality(id string, result dosha.ModalityResult) (*Consultation, error) {
	if result.Present {
		if err := result.Validate(); err != nil {
			return nil, err
		}
	}
	return s.attach(id, result)
}

func (s *Service) attach(id string, result dosha.ModalityResult) (*Consultation, error) {
	c, err := s.store.Update(id, func(c *Consultation) error {
		c.Results[result.Modality] = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("attached %s result to %s (present=%t)", result.Modality, id, result.Present)
	return c, nil
}

// Finalize fuses every result attached to the consultation and records the
// assessment.
func (s *Service) Finalize(id string) (*Consultation, error) {
	c, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	results := make([]dosha.ModalityResult, 0, len(c.Results))
	for _, r := range c.Results {
		results = append(results, r)
	}

	assessment, err := s.finish(results)
	if err != nil {
		return nil, err
	}

	return s.store.Update(id, func(c *Consultation) error {
		c.Assessment = assessment
		c.Status = StatusCompleted
		return nil
	})
}

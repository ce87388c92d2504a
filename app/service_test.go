package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayursense/domain/dosha"
	"ayursense/domain/fusion"
	"ayursense/domain/pulse"
	"ayursense/internal/cache"
	"ayursense/internal/errors"
)

// slowAnalyzer never finishes within any realistic budget.
type slowAnalyzer struct{}

func (slowAnalyzer) Analyze(ctx context.Context, w pulse.RawWaveform) (dosha.ModalityResult, error) {
	time.Sleep(time.Second)
	return dosha.ModalityResult{}, nil
}

func newTestService(timeout time.Duration) *Service {
	pipeline := NewPulsePipeline(cache.NewLRU(16))
	return NewService(pipeline, fusion.NewEngine(fusion.DefaultConfig()), timeout, nil)
}

func tongueResult() dosha.ModalityResult {
	return dosha.ModalityResult{
		Modality:   dosha.ModalityTongue,
		Scores:     dosha.Scores{dosha.Vata: 0.5, dosha.Pitta: 0.3, dosha.Kapha: 0.2},
		Confidence: 0.8,
		Present:    true,
	}
}

func syntheticWaveform(t *testing.T) pulse.RawWaveform {
	t.Helper()
	w, err := pulse.Synthesize(pulse.SyntheticParams{
		HeartRate:    72,
		Duration:     30,
		SamplingRate: 50,
		Seed:         9,
	})
	require.NoError(t, err)
	return w
}

func TestAssess_WaveformPlusExternalModality(t *testing.T) {
	svc := newTestService(10 * time.Second)
	w := syntheticWaveform(t)

	assessment, err := svc.Assess(context.Background(), AssessmentRequest{
		Waveform: &w,
		External: []dosha.ModalityResult{tongueResult()},
	})
	require.NoError(t, err)

	require.NoError(t, assessment.Fusion.Scores.Validate())
	assert.Contains(t, assessment.Fusion.WeightsUsed, dosha.ModalityPulse)
	assert.Contains(t, assessment.Fusion.WeightsUsed, dosha.ModalityTongue)
	assert.Len(t, assessment.Explanation.Modalities, 2)
	assert.NotEmpty(t, assessment.Explanation.Summary)

	// The pulse contribution must carry its analysis metadata through.
	var pulseDetails map[string]interface{}
	for _, m := range assessment.Explanation.Modalities {
		if m.Modality == dosha.ModalityPulse {
			pulseDetails = m.Details
		}
	}
	require.NotNil(t, pulseDetails)
	assert.Contains(t, pulseDetails, "rhythm_type")
}

func TestAssess_TimeoutDowngradesPulseToAbsent(t *testing.T) {
	svc := NewService(slowAnalyzer{}, fusion.NewEngine(fusion.DefaultConfig()), 20*time.Millisecond, nil)
	w := syntheticWaveform(t)

	assessment, err := svc.Assess(context.Background(), AssessmentRequest{
		Waveform: &w,
		External: []dosha.ModalityResult{tongueResult()},
	})
	require.NoError(t, err)

	assert.NotContains(t, assessment.Fusion.WeightsUsed, dosha.ModalityPulse)
	assert.InDelta(t, 1.0, assessment.Fusion.WeightsUsed[dosha.ModalityTongue], 1e-9)
}

func TestAssess_TimeoutWithNoOtherModalitiesFails(t *testing.T) {
	svc := NewService(slowAnalyzer{}, fusion.NewEngine(fusion.DefaultConfig()), 20*time.Millisecond, nil)
	w := syntheticWaveform(t)

	_, err := svc.Assess(context.Background(), AssessmentRequest{Waveform: &w})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoModalityData, errors.GetCode(err))
}

func TestAssess_InvalidWaveformPropagates(t *testing.T) {
	svc := newTestService(10 * time.Second)
	w := pulse.RawWaveform{Samples: nil, SamplingRate: 50}

	_, err := svc.Assess(context.Background(), AssessmentRequest{
		Waveform: &w,
		External: []dosha.ModalityResult{tongueResult()},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestAssess_MalformedExternalResultPropagates(t *testing.T) {
	svc := newTestService(10 * time.Second)

	bad := tongueResult()
	bad.Scores[dosha.Vata] = 0.9 // breaks the sum-to-one contract

	_, err := svc.Assess(context.Background(), AssessmentRequest{
		External: []dosha.ModalityResult{bad},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidModalityResult, errors.GetCode(err))
}

func TestAssess_EmptyRequestFails(t *testing.T) {
	svc := newTestService(10 * time.Second)

	_, err := svc.Assess(context.Background(), AssessmentRequest{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoModalityData, errors.GetCode(err))
}

func TestConsultationLifecycle(t *testing.T) {
	svc := newTestService(10 * time.Second)

	c := svc.CreateConsultation()
	require.NotEmpty(t, c.ID)
	assert.Equal(t, StatusActive, c.Status)

	_, err := svc.AttachPulse(context.Background(), c.ID, syntheticWaveform(t))
	require.NoError(t, err)

	_, err = svc.AttachModality(c.ID, tongueResult())
	require.NoError(t, err)

	got, err := svc.GetConsultation(c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Results, 2)

	final, err := svc.Finalize(c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	require.NotNil(t, final.Assessment)
	assert.NoError(t, final.Assessment.Fusion.Scores.Validate())
}

func TestFinalize_EmptyConsultationFails(t *testing.T) {
	svc := newTestService(10 * time.Second)
	c := svc.CreateConsultation()

	_, err := svc.Finalize(c.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoModalityData, errors.GetCode(err))
}

func TestGetConsultation_UnknownID(t *testing.T) {
	svc := newTestService(10 * time.Second)

	_, err := svc.GetConsultation("CONS-DEADBEEF")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestAttachModality_RejectsMalformedResult(t *testing.T) {
	svc := newTestService(10 * time.Second)
	c := svc.CreateConsultation()

	bad := tongueResult()
	bad.Confidence = 2.0

	_, err := svc.AttachModality(c.ID, bad)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidModalityResult, errors.GetCode(err))
}

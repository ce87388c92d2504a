// Package api exposes the assessment core over HTTP. It is a thin
// boundary: payloads are normalized into the core's contracts here, and no
// diagnostic computation happens in handlers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ayursense/adapters/report"
	"ayursense/app"
	"ayursense/domain/dosha"
	"ayursense/domain/pulse"
	"ayursense/internal"
	"ayursense/internal/errors"
)

// Server is the HTTP API for the assessment service.
type Server struct {
	router      chi.Router
	service     *app.Service
	renderer    *report.Renderer
	defaultSeed int64
	log         *internal.Logger
}

// NewServer wires the API routes.
func NewServer(service *app.Service, defaultSeed int64, log *internal.Logger) *Server {
	if log == nil {
		log = internal.DefaultLogger
	}
	s := &Server{
		router:      chi.NewRouter(),
		service:     service,
		renderer:    report.NewRenderer(),
		defaultSeed: defaultSeed,
		log:         log,
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/pulse/generate", s.handleGeneratePulse)
		r.Post("/pulse/analyze", s.handleAnalyzePulse)
		r.Post("/diagnosis/analyze", s.handleDiagnosis)

		r.Route("/consultations", func(r chi.Router) {
			r.Post("/", s.handleCreateConsultation)
			r.Get("/{id}", s.handleGetConsultation)
			r.Post("/{id}/pulse", s.handleConsultationPulse)
			r.Post("/{id}/modalities", s.handleConsultationModality)
			r.Post("/{id}/finalize", s.handleFinalize)
		})
	})
}

type waveformRequest struct {
	Samples      []float64 `json:"samples"`
	SamplingRate float64   `json:"sampling_rate"`
}

func (wr waveformRequest) toWaveform() (pulse.RawWaveform, error) {
	return pulse.NewRawWaveform(wr.Samples, wr.SamplingRate)
}

type generateRequest struct {
	HeartRate    float64 `json:"heart_rate"`
	Duration     float64 `json:"duration"`
	SamplingRate float64 `json:"sampling_rate"`
	Seed         *int64  `json:"seed,omitempty"`
}

type diagnosisRequest struct {
	Pulse      *waveformRequest       `json:"pulse,omitempty"`
	Modalities []dosha.ModalityResult `json:"modalities,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGeneratePulse(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Duration == 0 {
		req.Duration = 60
	}
	if req.SamplingRate == 0 {
		req.SamplingRate = 50
	}
	seed := s.defaultSeed
	if req.Seed != nil {
		seed = *req.Seed
	}

	waveform, err := pulse.Synthesize(pulse.SyntheticParams{
		HeartRate:    req.HeartRate,
		Duration:     req.Duration,
		SamplingRate: req.SamplingRate,
		Seed:         seed,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, waveform)
}

func (s *Server) handleAnalyzePulse(w http.ResponseWriter, r *http.Request) {
	var req waveformRequest
	if !s.decode(w, r, &req) {
		return
	}
	waveform, err := req.toWaveform()
	if err != nil {
		s.writeError(w, err)
		return
	}

	assessment, err := s.service.Assess(r.Context(), app.AssessmentRequest{Waveform: &waveform})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleDiagnosis(w http.ResponseWriter, r *http.Request) {
	var req diagnosisRequest
	if !s.decode(w, r, &req) {
		return
	}

	assessReq := app.AssessmentRequest{External: req.Modalities}
	if req.Pulse != nil {
		waveform, err := req.Pulse.toWaveform()
		if err != nil {
			s.writeError(w, err)
			return
		}
		assessReq.Waveform = &waveform
	}

	assessment, err := s.service.Assess(r.Context(), assessReq)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(s.renderer.HTML(assessment.Fusion, assessment.Explanation))
		return
	}
	s.writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleCreateConsultation(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusCreated, s.service.CreateConsultation())
}

func (s *Server) handleGetConsultation(w http.ResponseWriter, r *http.Request) {
	c, err := s.service.GetConsultation(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleConsultationPulse(w http.ResponseWriter, r *http.Request) {
	var req waveformRequest
	if !s.decode(w, r, &req) {
		return
	}
	waveform, err := req.toWaveform()
	if err != nil {
		s.writeError(w, err)
		return
	}

	c, err := s.service.AttachPulse(r.Context(), chi.URLParam(r, "id"), waveform)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleConsultationModality(w http.ResponseWriter, r *http.Request) {
	var result dosha.ModalityResult
	if !s.decode(w, r, &result) {
		return
	}

	c, err := s.service.AttachModality(chi.URLParam(r, "id"), result)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	c, err := s.service.Finalize(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "html" && c.Assessment != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(s.renderer.HTML(c.Assessment.Fusion, c.Assessment.Explanation))
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, errors.InvalidInput("malformed request body"))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeInvalidInput, errors.CodeInvalidModalityResult, errors.CodeNoModalityData:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed: %v", err)
	} else {
		s.log.Warn("request rejected (%s): %v", code, err)
	}

	s.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}

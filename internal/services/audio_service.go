package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/events"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/metrics"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/storage"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

const (
	audioContentType = "audio/mpeg"
	finishedJobTTL   = time.Hour
)

// StopSignal is polled between work units; an in-flight call is never interrupted
type StopSignal struct {
	stopped atomic.Bool
}

func NewStopSignal() *StopSignal {
	return &StopSignal{}
}

func (s *StopSignal) Stop() {
	if s != nil {
		s.stopped.Store(true)
	}
}

func (s *StopSignal) Stopped() bool {
	return s != nil && s.stopped.Load()
}

type AudioBatchRequest struct {
	ModuleID  uint
	Mode      models.ContentMode
	Languages []string
	Actor     string
	// Progress, when set, receives a copy of the report after every unit
	Progress func(BatchReport)
}

type UnitFailure struct {
	Language   string `json:"language"`
	SlideIndex int    `json:"slide_index"`
	SlideID    string `json:"slide_id"`
	Error      string `json:"error"`
}

// BatchReport counts one outcome per (language, slide) unit
type BatchReport struct {
	ModuleID   uint               `json:"module_id"`
	Mode       models.ContentMode `json:"mode"`
	Languages  []string           `json:"languages"`
	Total      int                `json:"total"`
	Processed  int                `json:"processed"`
	Generated  int                `json:"generated"`
	Skipped    int                `json:"skipped"`
	Missing    int                `json:"missing"`
	Failed     int                `json:"failed"`
	Stopped    bool               `json:"stopped"`
	Cancelled  bool               `json:"cancelled"`
	Failures   []UnitFailure      `json:"failures,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

func (r BatchReport) clone() BatchReport {
	r.Languages = append([]string(nil), r.Languages...)
	r.Failures = append([]UnitFailure(nil), r.Failures...)
	return r
}

type AudioJobStatus string

const (
	JobRunning   AudioJobStatus = "running"
	JobCompleted AudioJobStatus = "completed"
	JobStopped   AudioJobStatus = "stopped"
	JobCancelled AudioJobStatus = "cancelled"
	JobFailed    AudioJobStatus = "failed"
)

type AudioJob struct {
	ID            string         `json:"id"`
	ModuleID      uint           `json:"module_id"`
	Mode          string         `json:"mode"`
	Status        AudioJobStatus `json:"status"`
	StopRequested bool           `json:"stop_requested"`
	StartedBy     string         `json:"started_by"`
	Report        BatchReport    `json:"report"`
	Error         string         `json:"error,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
}

type audioJob struct {
	view AudioJob
	stop *StopSignal
}

// audioUnit is a (language, slide) pair whose audio object is known to exist
type audioUnit struct {
	lang     string
	slideID  string
	fallback string
}

type audioService struct {
	*Dependencies

	mu     sync.Mutex
	jobs   map[string]*audioJob
	active map[string]string
	wg     sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
	now     func() time.Time
}

func NewAudioService(deps *Dependencies) AudioService {
	ctx, cancel := context.WithCancel(context.Background())
	return &audioService{
		Dependencies: deps,
		jobs:         make(map[string]*audioJob),
		active:       make(map[string]string),
		baseCtx:      ctx,
		cancel:       cancel,
		now:          time.Now,
	}
}

// GenerateBatch walks languages in configured order and slides in slide order.
// Objects that already exist are flagged and skipped; a failed unit is counted
// and the walk continues. Flags are persisted once at the end, also after a stop.
func (s *audioService) GenerateBatch(ctx context.Context, req AudioBatchRequest, stop *StopSignal) (*BatchReport, error) {
	if s.Store == nil {
		return nil, ErrStorageUnavailable
	}
	if s.Speech == nil {
		return nil, ErrProviderUnavailable
	}
	if !req.Mode.Valid() {
		return nil, validationf("unknown mode %q", req.Mode)
	}

	module, err := s.Repo.Module().GetByID(ctx, req.ModuleID)
	if err != nil {
		return nil, mapRepoErr(err, ErrModuleNotFound, "load module")
	}
	content := module.Content.Data()
	slides := content.Slides(req.Mode)
	langs := resolveLanguages(s.Languages, req.Languages)

	report := &BatchReport{
		ModuleID:  module.ID,
		Mode:      req.Mode,
		Languages: langs,
		Total:     len(langs) * len(slides),
		StartedAt: s.now().UTC(),
	}
	progress := func() {
		if req.Progress != nil {
			req.Progress(report.clone())
		}
	}

	var satisfied []audioUnit
	source := s.sourceLanguage()

walk:
	for _, lang := range langs {
		for i, slide := range slides {
			if stop.Stopped() {
				report.Stopped = true
				break walk
			}
			if ctx.Err() != nil {
				report.Cancelled = true
				break walk
			}

			index := i + 1
			report.Processed++
			text := narration(content, source, lang, slide)
			if text == "" {
				report.Missing++
				progress()
				continue
			}

			key := storage.AudioObjectKey(module.ID, req.Mode, index, lang)
			if s.Store.Exists(ctx, key) {
				report.Skipped++
				s.Metrics.AudioUnit(metrics.ResultSkipped)
				satisfied = append(satisfied, audioUnit{lang: lang, slideID: slide.ID, fallback: text})
				progress()
				continue
			}

			if err := s.synthesizeUnit(ctx, key, text, lang); err != nil {
				report.Failed++
				report.Failures = append(report.Failures, UnitFailure{
					Language:   lang,
					SlideIndex: index,
					SlideID:    slide.ID,
					Error:      err.Error(),
				})
				s.Metrics.AudioUnit(metrics.ResultFailed)
				s.Logger.Warn("Audio unit failed", "module_id", module.ID, "lang", lang, "slide", index, "error", err)
				progress()
				continue
			}

			report.Generated++
			s.Metrics.AudioUnit(metrics.ResultGenerated)
			satisfied = append(satisfied, audioUnit{lang: lang, slideID: slide.ID, fallback: text})
			progress()
		}
	}

	finished := s.now().UTC()
	report.FinishedAt = &finished

	// The walk may have been cancelled; the flags for uploaded objects still have to land
	persistCtx := context.WithoutCancel(ctx)
	if err := s.persistFlags(persistCtx, module.ID, satisfied); err != nil {
		progress()
		return report, fmt.Errorf("failed to record audio flags: %w", err)
	}
	progress()

	s.Logger.Info("Audio batch finished",
		"module_id", module.ID,
		"mode", req.Mode,
		"generated", report.Generated,
		"skipped", report.Skipped,
		"missing", report.Missing,
		"failed", report.Failed,
		"stopped", report.Stopped)
	return report, nil
}

func (s *audioService) synthesizeUnit(ctx context.Context, key, text, lang string) error {
	audio, err := s.Speech.Synthesize(ctx, text, lang)
	if err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	if err := s.Store.Put(ctx, key, bytes.NewReader(audio), int64(len(audio)), audioContentType); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

// narration is the text spoken for a slide in lang; empty when there is no translation yet
func narration(content models.ModuleContent, source, lang string, slide models.Slide) string {
	if entry, ok := content.Translations.Entry(lang, slide.ID); ok && entry.Content != "" {
		return entry.Content
	}
	if lang == source {
		return ExtractSlideText(slide)
	}
	return ""
}

// persistFlags only ever upgrades hasAudio from absent to present
func (s *audioService) persistFlags(ctx context.Context, moduleID uint, units []audioUnit) error {
	if len(units) == 0 {
		return nil
	}
	changed := false
	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		fresh, err := tx.Module().GetByID(ctx, moduleID)
		if err != nil {
			return err
		}
		content := fresh.Content.Data()
		translations := content.Translations.Clone()
		for _, u := range units {
			if e, ok := translations.Entry(u.lang, u.slideID); ok && e.HasAudio {
				continue
			}
			translations.MarkAudio(u.lang, u.slideID, u.fallback)
			changed = true
		}
		if !changed {
			return nil
		}
		content.Translations = translations
		return tx.Module().UpdateContent(ctx, moduleID, content)
	})
	if err != nil {
		return err
	}
	if changed {
		s.Cache.InvalidateModule(ctx, moduleID)
	}
	return nil
}

// ===== JOB REGISTRY =====

// StartJob runs a batch in the background. A second start for the same
// module and mode returns the job that is already running.
func (s *audioService) StartJob(ctx context.Context, actor *session.Claims, req *validator.AudioJobRequest) (*AudioJob, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if s.Store == nil {
		return nil, ErrStorageUnavailable
	}
	if s.Speech == nil {
		return nil, ErrProviderUnavailable
	}
	if _, err := s.Repo.Module().GetByID(ctx, req.ModuleID); err != nil {
		return nil, mapRepoErr(err, ErrModuleNotFound, "load module")
	}

	key := fmt.Sprintf("%d:%s", req.ModuleID, req.Mode)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseCtx.Err() != nil {
		return nil, errors.New("audio service is shutting down")
	}
	s.pruneLocked()
	if id, ok := s.active[key]; ok {
		view := s.jobs[id].view
		view.Report = view.Report.clone()
		return &view, nil
	}

	job := &audioJob{
		view: AudioJob{
			ID:        uuid.NewString(),
			ModuleID:  req.ModuleID,
			Mode:      req.Mode,
			Status:    JobRunning,
			StartedBy: actor.UserID,
			StartedAt: s.now().UTC(),
		},
		stop: NewStopSignal(),
	}
	s.jobs[job.view.ID] = job
	s.active[key] = job.view.ID

	batch := AudioBatchRequest{
		ModuleID:  req.ModuleID,
		Mode:      models.ContentMode(req.Mode),
		Languages: req.Languages,
		Actor:     actor.UserID,
		Progress: func(r BatchReport) {
			s.mu.Lock()
			job.view.Report = r
			s.mu.Unlock()
		},
	}
	runCtx := events.WithRequestID(s.baseCtx, events.RequestIDFrom(ctx))

	s.wg.Add(1)
	go s.run(runCtx, key, job, batch)

	s.Logger.Info("Audio job started", "job_id", job.view.ID, "module_id", req.ModuleID, "mode", req.Mode)
	view := job.view
	return &view, nil
}

func (s *audioService) run(ctx context.Context, key string, job *audioJob, batch AudioBatchRequest) {
	defer s.wg.Done()

	report, err := s.GenerateBatch(ctx, batch, job.stop)

	s.mu.Lock()
	finished := s.now().UTC()
	job.view.FinishedAt = &finished
	if report != nil {
		job.view.Report = report.clone()
	}
	switch {
	case err != nil:
		job.view.Status = JobFailed
		job.view.Error = err.Error()
	case report.Stopped:
		job.view.Status = JobStopped
	case report.Cancelled:
		job.view.Status = JobCancelled
	default:
		job.view.Status = JobCompleted
	}
	delete(s.active, key)
	view := job.view
	s.mu.Unlock()

	if err != nil {
		s.Logger.Error("Audio job failed", "job_id", view.ID, "error", err)
	}
	s.Recorder.Record(ctx, models.AuditAudioGenerated, batch.Actor, fmt.Sprint(batch.ModuleID), map[string]interface{}{
		"job_id":    view.ID,
		"mode":      batch.Mode,
		"status":    view.Status,
		"generated": view.Report.Generated,
		"skipped":   view.Report.Skipped,
		"failed":    view.Report.Failed,
	})
}

func (s *audioService) JobStatus(ctx context.Context, actor *session.Claims, jobID string) (*AudioJob, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	view := job.view
	view.Report = view.Report.clone()
	return &view, nil
}

// StopJob asks the batch to stop after its current unit
func (s *audioService) StopJob(ctx context.Context, actor *session.Claims, jobID string) (*AudioJob, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	if job.view.Status == JobRunning {
		job.stop.Stop()
		job.view.StopRequested = true
		s.Logger.Info("Audio job stop requested", "job_id", jobID, "by", actor.UserID)
	}
	view := job.view
	view.Report = view.Report.clone()
	return &view, nil
}

// Shutdown stops every job and waits for the loops to exit. In-flight calls are
// cancelled only when ctx expires first.
func (s *audioService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, job := range s.jobs {
		job.stop.Stop()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func (s *audioService) pruneLocked() {
	cutoff := s.now().Add(-finishedJobTTL)
	for id, job := range s.jobs {
		if job.view.FinishedAt != nil && job.view.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

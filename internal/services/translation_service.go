package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

type translationService struct {
	*Dependencies
}

func NewTranslationService(deps *Dependencies) TranslationService {
	return &translationService{Dependencies: deps}
}

// TranslateModule either persists every returned entry or nothing.
func (s *translationService) TranslateModule(ctx context.Context, actor *session.Claims, req *validator.TranslateRequest) (*models.TranslationResult, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if s.Translator == nil {
		return nil, ErrProviderUnavailable
	}
	mode := models.ContentMode(req.Mode)

	module, err := s.Repo.Module().GetByID(ctx, req.ModuleID)
	if err != nil {
		return nil, mapRepoErr(err, ErrModuleNotFound, "load module")
	}

	source := s.sourceLanguage()
	var targets []string
	for _, lang := range resolveLanguages(s.Languages, req.Languages) {
		if lang != source {
			targets = append(targets, lang)
		}
	}
	if len(targets) == 0 {
		return nil, validationf("no target languages selected")
	}

	slides := module.Content.Data().Slides(mode)
	sources := TranslationSources(slides)
	if len(sources) == 0 {
		return nil, ErrNothingToTranslate
	}

	system, user, err := BuildTranslationPrompt(source, targets, sources)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Translating module", "module_id", module.ID, "mode", mode, "languages", targets, "slides", len(sources))
	raw, err := s.Translator.TranslateJSON(ctx, system, user)
	if err != nil {
		s.Metrics.TranslationRun(false)
		s.Logger.Error("Translation request failed", "module_id", module.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}

	incoming, err := ParseTranslationResponse(raw)
	if err != nil {
		s.Metrics.TranslationRun(false)
		s.Logger.Error("Rejected translation response", "module_id", module.ID, "error", err)
		return nil, err
	}

	ids := make(map[string]struct{}, len(slides))
	for _, sl := range slides {
		ids[sl.ID] = struct{}{}
	}
	incoming, dropped := incoming.Restrict(targets, ids)
	if dropped > 0 {
		s.Logger.Warn("Ignored translation entries outside the request", "module_id", module.ID, "dropped", dropped)
	}
	if incoming.Count() == 0 {
		s.Metrics.TranslationRun(false)
		return nil, fmt.Errorf("%w: no usable entries", ErrInvalidTranslationResponse)
	}

	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		fresh, err := tx.Module().GetByID(ctx, module.ID)
		if err != nil {
			return err
		}
		content := fresh.Content.Data()
		content.Translations = MergeTranslations(content.Translations, incoming)
		return tx.Module().UpdateContent(ctx, module.ID, content)
	})
	if err != nil {
		s.Metrics.TranslationRun(false)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to save translations: %w", err)
	}

	s.Metrics.TranslationRun(true)
	s.Cache.InvalidateModule(ctx, module.ID)

	applied := make([]string, 0, len(incoming))
	for _, lang := range targets {
		if _, ok := incoming[lang]; ok {
			applied = append(applied, lang)
		}
	}
	s.Recorder.Record(ctx, models.AuditModuleTranslated, actor.UserID, fmt.Sprint(module.ID), map[string]interface{}{
		"mode":      mode,
		"languages": applied,
		"entries":   incoming.Count(),
	})

	return &models.TranslationResult{
		ModuleID:  module.ID,
		Mode:      string(mode),
		Languages: applied,
		Slides:    len(sources),
		Entries:   incoming.Count(),
	}, nil
}

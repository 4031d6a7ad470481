package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/cache"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/storage"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

const defaultPassingMarks = 70

type moduleService struct {
	*Dependencies
}

func NewModuleService(deps *Dependencies) ModuleService {
	return &moduleService{Dependencies: deps}
}

func (s *moduleService) Create(ctx context.Context, actor *session.Claims, req *validator.ModuleCreateRequest) (*models.Module, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	var content models.ModuleContent
	if req.Content != nil {
		content = *req.Content
	}
	if err := validateSlides(content); err != nil {
		return nil, err
	}
	content.Translations = pruneTranslations(content.Translations, content.SlideIDs())

	module := &models.Module{
		Slug:         strings.TrimSpace(req.Slug),
		Title:        strings.TrimSpace(req.Title),
		Description:  trimPtr(req.Description),
		PassingMarks: defaultPassingMarks,
		IsActive:     true,
		Content:      datatypes.NewJSONType(content),
	}
	if req.PassingMarks != nil {
		module.PassingMarks = *req.PassingMarks
	}
	if req.IsActive != nil {
		module.IsActive = *req.IsActive
	}
	if actor.RecordID != 0 {
		createdBy := actor.RecordID
		module.CreatedBy = &createdBy
	}

	if err := s.Repo.Module().Create(ctx, module); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: slug %q is taken", ErrConflict, module.Slug)
		}
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	s.Cache.InvalidateModule(ctx, module.ID)
	s.Recorder.Record(ctx, models.AuditModuleCreated, actor.UserID, fmt.Sprint(module.ID), map[string]interface{}{
		"slug": module.Slug,
	})
	s.Logger.Info("Module created", "module_id", module.ID, "slug", module.Slug, "by", actor.UserID)
	return module, nil
}

func (s *moduleService) Get(ctx context.Context, actor *session.Claims, id uint) (*models.Module, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// load reads a module through the module cache
func (s *moduleService) load(ctx context.Context, id uint) (*models.Module, error) {
	var module models.Module
	err := s.Cache.Module.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &module, cache.ModuleCacheConfig.TTL, func() (interface{}, error) {
		return s.Repo.Module().GetByID(ctx, id)
	})
	if err != nil {
		return nil, mapRepoErr(err, ErrModuleNotFound, "load module")
	}
	return &module, nil
}

func (s *moduleService) List(ctx context.Context, actor *session.Claims) ([]models.ModuleSummary, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	modules, err := s.Repo.Module().List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	out := make([]models.ModuleSummary, 0, len(modules))
	for _, m := range modules {
		content := m.Content.Data()
		langs := make([]string, 0, len(content.Translations))
		for lang := range content.Translations {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		out = append(out, models.ModuleSummary{
			ID:              m.ID,
			Slug:            m.Slug,
			Title:           m.Title,
			PassingMarks:    m.PassingMarks,
			IsActive:        m.IsActive,
			TrainingSlides:  len(content.Training.Slides),
			AssessmentCount: len(content.Assessment.Slides),
			Languages:       langs,
			UpdatedAt:       m.UpdatedAt,
		})
	}
	return out, nil
}

func (s *moduleService) Update(ctx context.Context, actor *session.Claims, id uint, req *validator.ModuleUpdateRequest) (*models.Module, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	module, err := s.Repo.Module().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, ErrModuleNotFound, "load module")
	}

	var changed []string
	if req.Slug != nil {
		module.Slug = strings.TrimSpace(*req.Slug)
		changed = append(changed, "slug")
	}
	if req.Title != nil {
		module.Title = strings.TrimSpace(*req.Title)
		changed = append(changed, "title")
	}
	if req.Description != nil {
		module.Description = trimPtr(req.Description)
		changed = append(changed, "description")
	}
	if req.PassingMarks != nil {
		module.PassingMarks = *req.PassingMarks
		changed = append(changed, "passing_marks")
	}
	if req.IsActive != nil {
		module.IsActive = *req.IsActive
		changed = append(changed, "is_active")
	}
	if len(changed) == 0 {
		return module, nil
	}

	if err := s.Repo.Module().Update(ctx, module); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: slug %q is taken", ErrConflict, module.Slug)
		}
		return nil, mapRepoErr(err, ErrModuleNotFound, "update module")
	}

	s.Cache.InvalidateModule(ctx, id)
	s.Recorder.Record(ctx, models.AuditModuleUpdated, actor.UserID, fmt.Sprint(id), map[string]interface{}{
		"fields": changed,
	})
	return module, nil
}

// UpdateContent replaces both slide sets. Translations of slides that still
// exist are kept; those of removed slides are dropped.
func (s *moduleService) UpdateContent(ctx context.Context, actor *session.Claims, id uint, req *validator.ModuleContentRequest) (*models.Module, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, validationf("content is required")
	}
	next := models.ModuleContent{Training: req.Training, Assessment: req.Assessment}
	if err := validateSlides(next); err != nil {
		return nil, err
	}

	var (
		saved *models.Module
		moved int
	)
	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		fresh, err := tx.Module().GetByID(ctx, id)
		if err != nil {
			return err
		}
		prev := fresh.Content.Data()
		next.Translations = pruneTranslations(prev.Translations, next.SlideIDs())
		moved = s.relocateAudio(ctx, id, prev, &next)
		if err := tx.Module().UpdateContent(ctx, id, next); err != nil {
			return err
		}
		fresh.Content = datatypes.NewJSONType(next)
		saved = fresh
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, ErrModuleNotFound, "update module content")
	}

	s.Cache.InvalidateModule(ctx, id)
	s.Recorder.Record(ctx, models.AuditModuleUpdated, actor.UserID, fmt.Sprint(id), map[string]interface{}{
		"fields":            []string{"content"},
		"training_slides":   len(next.Training.Slides),
		"assessment_slides": len(next.Assessment.Slides),
		"audio_moved":       moved,
	})
	return saved, nil
}

func (s *moduleService) Delete(ctx context.Context, actor *session.Claims, id uint) error {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.Repo.Module().Delete(ctx, id); err != nil {
		return mapRepoErr(err, ErrModuleNotFound, "delete module")
	}

	s.Cache.InvalidateModule(ctx, id)
	// Assignments cascade with the module
	cache.SafeInvalidatePattern(ctx, s.Cache.View, "*:assignments")
	cache.SafeInvalidatePattern(ctx, s.Cache.View, "*:dashboard")
	s.Recorder.Record(ctx, models.AuditModuleDeleted, actor.UserID, fmt.Sprint(id), nil)
	return nil
}

// Export packs the module as a single JSON document inside a ZIP archive
func (s *moduleService) Export(ctx context.Context, actor *session.Claims, id uint) (*FileDownload, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	module, err := s.Repo.Module().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, ErrModuleNotFound, "load module")
	}

	name := module.Slug
	if name == "" {
		name = fmt.Sprintf("module-%d", module.ID)
	}

	body, err := json.MarshalIndent(module, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode module: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to create archive entry: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("failed to write archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	s.Recorder.Record(ctx, models.AuditModuleExported, actor.UserID, fmt.Sprint(module.ID), map[string]interface{}{
		"bytes": buf.Len(),
	})
	return &FileDownload{
		Filename:    name + ".zip",
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, nil
}

// Localized renders a mode in one language. Drivers only see active modules
// they are assigned to, and never the correct quiz answers.
func (s *moduleService) Localized(ctx context.Context, actor *session.Claims, id uint, mode models.ContentMode, lang string) (*models.LocalizedModule, error) {
	if err := authorize(actor, models.RoleBasic); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, validationf("unknown mode %q", mode)
	}
	lang = s.pickLanguage(lang)

	if !actor.Role.Satisfies(models.RoleAdmin) {
		if _, err := s.Repo.Assignment().GetByUserAndModule(ctx, actor.RecordID, id); err != nil {
			return nil, mapRepoErr(err, ErrModuleNotFound, "load assignment")
		}
	}

	var view models.LocalizedModule
	key := cache.ViewKey(actor.UserID, fmt.Sprintf("module:%d:%s:%s", id, mode, lang))
	err := s.Cache.View.CacheOrExecute(ctx, key, &view, cache.ViewCacheConfig.TTL, func() (interface{}, error) {
		module, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if !module.IsActive && !actor.Role.Satisfies(models.RoleAdmin) {
			return nil, ErrModuleNotFound
		}
		return s.localize(module, mode, lang), nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *moduleService) pickLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range s.Languages {
		if l == lang {
			return lang
		}
	}
	return s.sourceLanguage()
}

func (s *moduleService) localize(module *models.Module, mode models.ContentMode, lang string) *models.LocalizedModule {
	content := module.Content.Data()
	slides := content.Slides(mode)

	out := &models.LocalizedModule{
		ModuleID:     module.ID,
		Slug:         module.Slug,
		Title:        module.Title,
		Mode:         mode,
		Language:     lang,
		PassingMarks: module.PassingMarks,
		Slides:       make([]models.LocalizedSlide, 0, len(slides)),
	}

	for i, slide := range slides {
		ls := models.LocalizedSlide{
			Index:    i + 1,
			ID:       slide.ID,
			Type:     slide.Type,
			Title:    slide.Title,
			Content:  slide.Content,
			Question: slide.Question,
			Elements: slide.Elements,
			MediaURL: slide.MediaURL,
		}
		for _, opt := range slide.Options {
			ls.Options = append(ls.Options, models.QuizOption{ID: opt.ID, Text: opt.Text})
		}

		entry, ok := content.Translations.Entry(lang, slide.ID)
		if ok && lang != s.sourceLanguage() && entry.Content != "" {
			applyTranslation(&ls, entry)
		}
		if ok && entry.HasAudio && s.Store != nil {
			ls.AudioURL = s.Store.PublicURL(storage.AudioObjectKey(module.ID, mode, i+1, lang))
		}
		out.Slides = append(out.Slides, ls)
	}
	return out
}

// applyTranslation maps translated paragraphs back onto the slide. Quiz slides
// get the question from the first paragraph and one option per following one.
func applyTranslation(ls *models.LocalizedSlide, entry models.TranslationEntry) {
	if entry.Title != nil && *entry.Title != "" {
		ls.Title = *entry.Title
	}
	if ls.Type != models.SlideQuiz {
		ls.Content = entry.Content
		var kept []models.SlideElement
		for _, el := range ls.Elements {
			if el.Text == "" {
				kept = append(kept, el)
			}
		}
		ls.Elements = kept
		return
	}

	parts := strings.Split(entry.Content, paragraphSeparator)
	if len(parts) != len(ls.Options)+1 {
		ls.Content = entry.Content
		return
	}
	ls.Question = strings.TrimSpace(parts[0])
	for i := range ls.Options {
		ls.Options[i].Text = strings.TrimSpace(parts[i+1])
	}
}

// validateSlides requires unique non-empty slide ids across both modes and a
// correct option on every quiz slide
func validateSlides(content models.ModuleContent) error {
	seen := make(map[string]struct{})
	for _, set := range [][]models.Slide{content.Training.Slides, content.Assessment.Slides} {
		for i, slide := range set {
			id := strings.TrimSpace(slide.ID)
			if id == "" {
				return validationf("slide %d has no id", i+1)
			}
			if _, dup := seen[id]; dup {
				return validationf("duplicate slide id %q", id)
			}
			seen[id] = struct{}{}

			switch slide.Type {
			case models.SlideContent, models.SlideVideo:
			case models.SlideQuiz:
				if len(slide.Options) < 2 {
					return validationf("quiz slide %q needs at least two options", id)
				}
				if _, ok := slide.CorrectOption(); !ok {
					return validationf("quiz slide %q has no correct option", id)
				}
			default:
				return validationf("slide %q has unknown type %q", id, slide.Type)
			}
		}
	}
	return nil
}

// audioSlot is where a slide's narration is stored: its mode and 1-based index.
type audioSlot struct {
	mode  models.ContentMode
	index int
}

func audioSlots(c models.ModuleContent) map[string]audioSlot {
	slots := make(map[string]audioSlot)
	for _, mode := range []models.ContentMode{models.ModeTraining, models.ModeAssessment} {
		for i, slide := range c.Slides(mode) {
			slots[slide.ID] = audioSlot{mode: mode, index: i + 1}
		}
	}
	return slots
}

type audioMove struct {
	lang     string
	slideID  string
	from, to string
}

// relocateAudio keeps narration with its slide id when slides change position.
// Moved objects go through a staging key so swaps do not overwrite each other,
// then keys no narrated slide owns any more are removed. A slide whose object
// could not be moved loses its audio flag and the next batch regenerates it.
func (s *moduleService) relocateAudio(ctx context.Context, moduleID uint, prev models.ModuleContent, next *models.ModuleContent) int {
	before, after := audioSlots(prev), audioSlots(*next)

	var moves []audioMove
	stale := make(map[string]struct{})
	for lang, slides := range prev.Translations {
		for id, entry := range slides {
			from, ok := before[id]
			if !entry.HasAudio || !ok {
				continue
			}
			fromKey := storage.AudioObjectKey(moduleID, from.mode, from.index, lang)
			to, kept := after[id]
			switch {
			case !kept:
				stale[fromKey] = struct{}{}
			case to != from:
				stale[fromKey] = struct{}{}
				moves = append(moves, audioMove{
					lang:    lang,
					slideID: id,
					from:    fromKey,
					to:      storage.AudioObjectKey(moduleID, to.mode, to.index, lang),
				})
			}
		}
	}
	if len(moves) == 0 && len(stale) == 0 {
		return 0
	}

	dropFlag := func(m audioMove) {
		if entry, ok := next.Translations.Entry(m.lang, m.slideID); ok {
			entry.HasAudio = false
			next.Translations[m.lang][m.slideID] = entry
		}
	}
	if s.Store == nil {
		for _, m := range moves {
			dropFlag(m)
		}
		return 0
	}

	// Deterministic order
	sort.Slice(moves, func(i, j int) bool { return moves[i].to < moves[j].to })

	failed := make([]bool, len(moves))
	for i, m := range moves {
		if err := s.Store.Copy(ctx, m.from, m.to+".moving"); err != nil {
			s.Logger.Warn("Audio staging failed", "module_id", moduleID, "slide", m.slideID, "lang", m.lang, "error", err)
			failed[i] = true
		}
	}

	owned := make(map[string]struct{}, len(moves))
	moved := 0
	for i, m := range moves {
		if !failed[i] {
			if err := s.Store.Copy(ctx, m.to+".moving", m.to); err != nil {
				s.Logger.Warn("Audio move failed", "module_id", moduleID, "slide", m.slideID, "lang", m.lang, "error", err)
				failed[i] = true
			}
			if err := s.Store.Remove(ctx, m.to+".moving"); err != nil {
				s.Logger.Warn("Audio staging cleanup failed", "key", m.to+".moving", "error", err)
			}
		}
		if failed[i] {
			dropFlag(m)
			stale[m.to] = struct{}{}
			continue
		}
		owned[m.to] = struct{}{}
		moved++
	}

	for key := range stale {
		if _, ok := owned[key]; ok {
			continue
		}
		if err := s.Store.Remove(ctx, key); err != nil {
			s.Logger.Warn("Stale audio cleanup failed", "key", key, "error", err)
		}
	}
	return moved
}

func pruneTranslations(t models.TranslationMap, ids map[string]struct{}) models.TranslationMap {
	out := t.Clone()
	for lang, slides := range out {
		for id := range slides {
			if _, ok := ids[id]; !ok {
				delete(slides, id)
			}
		}
		if len(slides) == 0 {
			delete(out, lang)
		}
	}
	return out
}

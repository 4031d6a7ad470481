package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentMode selects the slide sequence of a module.
type ContentMode string

const (
	ModeTraining   ContentMode = "training"
	ModeAssessment ContentMode = "assessment"
)

func (m ContentMode) Valid() bool {
	return m == ModeTraining || m == ModeAssessment
}

// StorageSegment is the path segment used for assets of this mode.
func (m ContentMode) StorageSegment() string {
	if m == ModeAssessment {
		return "test"
	}
	return "training"
}

type SlideType string

const (
	SlideContent SlideType = "content"
	SlideQuiz    SlideType = "quiz"
	SlideVideo   SlideType = "video"
)

type SlideElement struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

type QuizOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect,omitempty"`
}

// Slide ids are reused as translation and audio keys and must never be reassigned.
type Slide struct {
	ID       string         `json:"id"`
	Type     SlideType      `json:"type"`
	Title    string         `json:"title,omitempty"`
	Content  string         `json:"content,omitempty"`
	Elements []SlideElement `json:"elements,omitempty"`
	Question string         `json:"question,omitempty"`
	Options  []QuizOption   `json:"options,omitempty"`
	MediaURL string         `json:"mediaUrl,omitempty"`
}

func (s Slide) IsQuiz() bool {
	return s.Type == SlideQuiz
}

// CorrectOption returns the id of the first correct option.
func (s Slide) CorrectOption() (string, bool) {
	for _, o := range s.Options {
		if o.IsCorrect {
			return o.ID, true
		}
	}
	return "", false
}

type SlideSet struct {
	Slides []Slide `json:"slides"`
}

type TranslationEntry struct {
	Title    *string `json:"title,omitempty"`
	Content  string  `json:"content"`
	HasAudio bool    `json:"hasAudio"`
}

// TranslationMap is keyed by language code, then slide id.
type TranslationMap map[string]map[string]TranslationEntry

// Clone returns a deep copy safe to mutate.
func (t TranslationMap) Clone() TranslationMap {
	out := make(TranslationMap, len(t))
	for lang, slides := range t {
		inner := make(map[string]TranslationEntry, len(slides))
		for id, entry := range slides {
			if entry.Title != nil {
				title := *entry.Title
				entry.Title = &title
			}
			inner[id] = entry
		}
		out[lang] = inner
	}
	return out
}

// Entry looks up a (language, slide) pair.
func (t TranslationMap) Entry(lang, slideID string) (TranslationEntry, bool) {
	slides, ok := t[lang]
	if !ok {
		return TranslationEntry{}, false
	}
	e, ok := slides[slideID]
	return e, ok
}

// MarkAudio upgrades the audio flag of a pair, creating the entry if needed.
func (t TranslationMap) MarkAudio(lang, slideID, fallbackContent string) {
	slides, ok := t[lang]
	if !ok {
		slides = make(map[string]TranslationEntry)
		t[lang] = slides
	}
	e, ok := slides[slideID]
	if !ok {
		e.Content = fallbackContent
	}
	e.HasAudio = true
	slides[slideID] = e
}

type ModuleContent struct {
	Training     SlideSet       `json:"training"`
	Assessment   SlideSet       `json:"assessment"`
	Translations TranslationMap `json:"translations,omitempty"`
}

// Slides returns the slide sequence for a mode.
func (c ModuleContent) Slides(mode ContentMode) []Slide {
	if mode == ModeAssessment {
		return c.Assessment.Slides
	}
	return c.Training.Slides
}

// SlideIDs returns every slide id across both modes.
func (c ModuleContent) SlideIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Training.Slides)+len(c.Assessment.Slides))
	for _, s := range c.Training.Slides {
		ids[s.ID] = struct{}{}
	}
	for _, s := range c.Assessment.Slides {
		ids[s.ID] = struct{}{}
	}
	return ids
}

type Module struct {
	ID           uint                              `json:"id" gorm:"primaryKey"`
	Slug         string                            `json:"slug" gorm:"uniqueIndex;not null;size:120"`
	Title        string                            `json:"title" gorm:"not null;size:200"`
	Description  *string                           `json:"description" gorm:"type:text"`
	PassingMarks int                               `json:"passing_marks" gorm:"not null;default:70"`
	IsActive     bool                              `json:"is_active" gorm:"not null;default:true;index"`
	Content      datatypes.JSONType[ModuleContent] `json:"content" gorm:"type:jsonb"`
	CreatedBy    *uint                             `json:"created_by,omitempty" gorm:"index"`
	CreatedAt    time.Time                         `json:"created_at"`
	UpdatedAt    time.Time                         `json:"updated_at"`
	DeletedAt    gorm.DeletedAt                    `json:"-" gorm:"index"`
}

func (Module) TableName() string {
	return "modules"
}

// ModuleSummary is the list view without the content blob.
type ModuleSummary struct {
	ID              uint      `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	PassingMarks    int       `json:"passing_marks"`
	IsActive        bool      `json:"is_active"`
	TrainingSlides  int       `json:"training_slides"`
	AssessmentCount int       `json:"assessment_slides"`
	Languages       []string  `json:"languages"`
	UpdatedAt       time.Time `json:"updated_at"`
}

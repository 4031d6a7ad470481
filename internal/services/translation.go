package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
)

const paragraphSeparator = "\n\n"

// TranslationSource is one slide as sent to the translator
type TranslationSource struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// TranslationUpdate is one (language, slide) entry as returned by the translator.
// HasAudio is nil unless the response set it explicitly.
type TranslationUpdate struct {
	Title    *string `json:"title,omitempty"`
	Content  string  `json:"content"`
	HasAudio *bool   `json:"hasAudio,omitempty"`
}

// TranslationUpdates is keyed by language code, then slide id
type TranslationUpdates map[string]map[string]TranslationUpdate

// ExtractSlideText flattens a slide into plain paragraphs. Quiz slides yield the
// question followed by one paragraph per option.
func ExtractSlideText(slide models.Slide) string {
	var parts []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	if slide.IsQuiz() {
		add(slide.Question)
		for _, opt := range slide.Options {
			add(opt.Text)
		}
		return strings.Join(parts, paragraphSeparator)
	}

	add(slide.Content)
	for _, el := range slide.Elements {
		add(el.Text)
	}
	return strings.Join(parts, paragraphSeparator)
}

// TranslationSources extracts every slide that has something to translate
func TranslationSources(slides []models.Slide) []TranslationSource {
	out := make([]TranslationSource, 0, len(slides))
	for _, s := range slides {
		text := ExtractSlideText(s)
		title := strings.TrimSpace(s.Title)
		if text == "" && title == "" {
			continue
		}
		out = append(out, TranslationSource{ID: s.ID, Title: title, Content: text})
	}
	return out
}

const translationRules = `You translate driver training slides.
Rules:
1. Preserve the meaning exactly. Do not add, drop or summarise information.
2. Preserve every line break, number, unit, symbol and emoji exactly as written.
3. Use the natural spoken register a driver would hear, not formal or literary language.
4. Never change, translate or invent slide ids. Use only the ids you were given.
5. Translate the title when one is given.
Respond with a single JSON object of this shape and nothing else:
{"translations": {"<languageCode>": {"slides": {"<slideId>": {"title": "...", "content": "..."}}}}}`

// BuildTranslationPrompt returns the system and user messages for one run
func BuildTranslationPrompt(sourceLang string, targetLangs []string, sources []TranslationSource) (string, string, error) {
	payload := struct {
		SourceLanguage  string              `json:"sourceLanguage"`
		TargetLanguages []string            `json:"targetLanguages"`
		Slides          []TranslationSource `json:"slides"`
	}{
		SourceLanguage:  sourceLang,
		TargetLanguages: targetLangs,
		Slides:          sources,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode translation payload: %w", err)
	}
	return translationRules, string(body), nil
}

// ParseTranslationResponse accepts {translations:{lang:{slides:{id:{...}}}}} and the
// flat {translations:{lang:{id:{...}}}}. A missing translations key is fatal.
func ParseTranslationResponse(raw string) (TranslationUpdates, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTranslationResponse, err)
	}

	rawTranslations, ok := doc["translations"]
	if !ok || isJSONNull(rawTranslations) {
		return nil, ErrInvalidTranslationResponse
	}

	var byLang map[string]json.RawMessage
	if err := json.Unmarshal(rawTranslations, &byLang); err != nil {
		return nil, fmt.Errorf("%w: translations must be an object", ErrInvalidTranslationResponse)
	}

	out := make(TranslationUpdates, len(byLang))
	for lang, rawLang := range byLang {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(rawLang, &entries); err != nil {
			return nil, fmt.Errorf("%w: language %q must be an object", ErrInvalidTranslationResponse, lang)
		}
		if nested, ok := entries["slides"]; ok && isSlideMap(nested) {
			entries = nil
			if err := json.Unmarshal(nested, &entries); err != nil {
				return nil, fmt.Errorf("%w: slides of %q must be an object", ErrInvalidTranslationResponse, lang)
			}
		}

		code := strings.ToLower(strings.TrimSpace(lang))
		if _, dup := out[code]; dup {
			return nil, fmt.Errorf("%w: language %q appears more than once", ErrInvalidTranslationResponse, code)
		}

		slides := make(map[string]TranslationUpdate, len(entries))
		for id, rawEntry := range entries {
			entry, err := parseEntry(rawEntry)
			if err != nil {
				return nil, fmt.Errorf("%w: slide %q in %q: %v", ErrInvalidTranslationResponse, id, lang, err)
			}
			slides[id] = entry
		}
		out[code] = slides
	}
	return out, nil
}

// isSlideMap tells a nested {slides:{id:entry}} block from a flat entry whose
// slide id happens to be "slides": an entry carries its own fields.
func isSlideMap(raw json.RawMessage) bool {
	if !isJSONObject(raw) {
		return false
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return false
	}
	for key := range members {
		switch key {
		case "content", "title", "hasAudio":
			return false
		}
	}
	return true
}

// parseEntry also accepts a bare string as the content
func parseEntry(raw json.RawMessage) (TranslationUpdate, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return TranslationUpdate{Content: text}, nil
	}
	var entry TranslationUpdate
	if err := json.Unmarshal(raw, &entry); err != nil {
		return TranslationUpdate{}, err
	}
	return entry, nil
}

// MergeTranslations overlays incoming onto existing without mutating either.
// Content and title are replaced when present; hasAudio survives unless the
// update sets it explicitly.
func MergeTranslations(existing models.TranslationMap, incoming TranslationUpdates) models.TranslationMap {
	out := existing.Clone()
	for lang, slides := range incoming {
		target, ok := out[lang]
		if !ok {
			target = make(map[string]models.TranslationEntry, len(slides))
			out[lang] = target
		}
		for id, u := range slides {
			entry := target[id]
			if u.Content != "" {
				entry.Content = u.Content
			}
			if u.Title != nil {
				title := *u.Title
				entry.Title = &title
			}
			if u.HasAudio != nil {
				entry.HasAudio = *u.HasAudio
			}
			target[id] = entry
		}
	}
	return out
}

// Restrict keeps only the listed languages and slide ids
func (u TranslationUpdates) Restrict(languages []string, slideIDs map[string]struct{}) (TranslationUpdates, int) {
	allowed := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		allowed[l] = struct{}{}
	}

	out := make(TranslationUpdates, len(u))
	dropped := 0
	for lang, slides := range u {
		if _, ok := allowed[lang]; !ok {
			dropped += len(slides)
			continue
		}
		kept := make(map[string]TranslationUpdate, len(slides))
		for id, entry := range slides {
			if _, ok := slideIDs[id]; !ok {
				dropped++
				continue
			}
			kept[id] = entry
		}
		if len(kept) > 0 {
			out[lang] = kept
		}
	}
	return out, dropped
}

// Count returns the number of (language, slide) entries
func (u TranslationUpdates) Count() int {
	n := 0
	for _, slides := range u {
		n += len(slides)
	}
	return n
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

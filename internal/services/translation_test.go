package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

func TestExtractSlideText(t *testing.T) {
	content := models.Slide{
		ID:       "s1",
		Type:     models.SlideContent,
		Content:  "  Brake early. ",
		Elements: []models.SlideElement{{Type: "text", Text: "Wet roads double distance."}, {Type: "image", URL: "x.png"}},
	}
	assert.Equal(t, "Brake early.\n\nWet roads double distance.", ExtractSlideText(content))

	quiz := models.Slide{
		ID:       "q1",
		Type:     models.SlideQuiz,
		Question: "Stop at amber?",
		Options:  []models.QuizOption{{ID: "a", Text: "Yes"}, {ID: "b", Text: "No"}},
	}
	assert.Equal(t, "Stop at amber?\n\nYes\n\nNo", ExtractSlideText(quiz))

	assert.Empty(t, ExtractSlideText(models.Slide{ID: "v", Type: models.SlideVideo, MediaURL: "clip.mp4"}))
}

func TestBuildTranslationPrompt(t *testing.T) {
	system, user, err := BuildTranslationPrompt("en", []string{"hi"}, []TranslationSource{{ID: "t1", Content: "Hello"}})
	require.NoError(t, err)
	assert.Contains(t, system, "Never change, translate or invent slide ids")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(user), &payload))
	assert.Equal(t, "en", payload["sourceLanguage"])
	assert.Equal(t, []interface{}{"hi"}, payload["targetLanguages"])
}

func TestParseTranslationResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, u TranslationUpdates)
	}{
		{
			name: "nested slides",
			raw:  `{"translations":{"hi":{"slides":{"t1":{"title":"शीर्षक","content":"नमस्ते"}}}}}`,
			check: func(t *testing.T, u TranslationUpdates) {
				require.Contains(t, u, "hi")
				assert.Equal(t, "नमस्ते", u["hi"]["t1"].Content)
				require.NotNil(t, u["hi"]["t1"].Title)
				assert.Equal(t, "शीर्षक", *u["hi"]["t1"].Title)
				assert.Nil(t, u["hi"]["t1"].HasAudio)
			},
		},
		{
			name: "flat map with bare strings and fences",
			raw:  "```json\n{\"translations\":{\"HI\":{\"t1\":\"नमस्ते\"}}}\n```",
			check: func(t *testing.T, u TranslationUpdates) {
				assert.Equal(t, "नमस्ते", u["hi"]["t1"].Content)
			},
		},
		{
			name: "flat slide with the id slides",
			raw:  `{"translations":{"hi":{"slides":{"content":"स्लाइड"},"t1":"नमस्ते"}}}`,
			check: func(t *testing.T, u TranslationUpdates) {
				assert.Equal(t, "स्लाइड", u["hi"]["slides"].Content)
				assert.Equal(t, "नमस्ते", u["hi"]["t1"].Content)
			},
		},
		{name: "language repeated with other case", raw: `{"translations":{"hi":{"t1":"a"},"HI":{"t1":"b"}}}`, wantErr: true},
		{name: "missing translations", raw: `{"slides":{}}`, wantErr: true},
		{name: "null translations", raw: `{"translations":null}`, wantErr: true},
		{name: "not json", raw: `Sorry, I cannot help`, wantErr: true},
		{name: "translations not an object", raw: `{"translations":["hi"]}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseTranslationResponse(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTranslationResponse)
				return
			}
			require.NoError(t, err)
			tt.check(t, u)
		})
	}
}

func TestMergeTranslations(t *testing.T) {
	title := "Old title"
	existing := models.TranslationMap{
		"hi": {
			"t1": {Title: &title, Content: "old", HasAudio: true},
			"t2": {Content: "keep", HasAudio: true},
		},
	}
	noAudio := false
	newTitle := "New title"
	incoming := TranslationUpdates{
		"hi": {
			"t1": {Content: "new", Title: &newTitle},
			"t2": {Content: "", HasAudio: &noAudio},
		},
		"bn": {"t1": {Content: "bengali"}},
	}

	merged := MergeTranslations(existing, incoming)

	assert.Equal(t, "new", merged["hi"]["t1"].Content)
	assert.Equal(t, "New title", *merged["hi"]["t1"].Title)
	assert.True(t, merged["hi"]["t1"].HasAudio, "hasAudio survives a content update")
	assert.Equal(t, "keep", merged["hi"]["t2"].Content, "empty content does not overwrite")
	assert.False(t, merged["hi"]["t2"].HasAudio, "explicit hasAudio is applied")
	assert.Equal(t, "bengali", merged["bn"]["t1"].Content)

	// inputs are untouched
	assert.Equal(t, "old", existing["hi"]["t1"].Content)
	assert.Equal(t, "Old title", *existing["hi"]["t1"].Title)
	assert.NotContains(t, existing, "bn")
}

func TestMergeTranslations_Idempotent(t *testing.T) {
	incoming := TranslationUpdates{"hi": {"t1": {Content: "x"}}}
	once := MergeTranslations(nil, incoming)
	twice := MergeTranslations(once, incoming)
	assert.Equal(t, once, twice)
}

func TestTranslationUpdates_Restrict(t *testing.T) {
	u := TranslationUpdates{
		"hi": {"t1": {Content: "a"}, "ghost": {Content: "b"}},
		"fr": {"t1": {Content: "c"}},
	}
	kept, dropped := u.Restrict([]string{"hi"}, map[string]struct{}{"t1": {}})
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 1, kept.Count())
	assert.Equal(t, "a", kept["hi"]["t1"].Content)
}

func TestTranslationService_TranslateModule(t *testing.T) {
	env := newTestEnv(t)
	translator := &fakeTranslator{
		response: `{"translations":{"hi":{"slides":{"t1":{"title":"दर्पण","content":"हर पाँच सेकंड"},"t2":{"content":"दो सेकंड"}}}}}`,
	}
	env.deps.Translator = translator
	svc := NewTranslationService(env.deps)
	ctx := context.Background()
	admin := env.seedAdmin(t, "ADM1")
	module := env.seedModule(t, "mirrors", sampleContent())

	res, err := svc.TranslateModule(ctx, admin, &validator.TranslateRequest{
		ModuleID:  module.ID,
		Mode:      "training",
		Languages: []string{"hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, res.Languages)
	assert.Equal(t, 2, res.Entries)
	assert.Contains(t, translator.lastUser, "Check mirrors every five seconds.")

	content := env.storedContent(t, module.ID)
	assert.Equal(t, "हर पाँच सेकंड", content.Translations["hi"]["t1"].Content)
	assert.Equal(t, "दर्पण", *content.Translations["hi"]["t1"].Title)
	assert.Len(t, content.Training.Slides, 2, "slides are untouched")
}

func TestTranslationService_MissingTranslationsLeavesModuleUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Translator = &fakeTranslator{response: `{"result":"ok"}`}
	svc := NewTranslationService(env.deps)
	ctx := context.Background()
	admin := env.seedAdmin(t, "ADM1")

	content := sampleContent()
	content.Translations = models.TranslationMap{"hi": {"t1": {Content: "पुराना", HasAudio: true}}}
	module := env.seedModule(t, "mirrors", content)

	_, err := svc.TranslateModule(ctx, admin, &validator.TranslateRequest{ModuleID: module.ID, Mode: "training"})
	assert.ErrorIs(t, err, ErrInvalidTranslationResponse)

	assert.Zero(t, env.repo.contentWrites)
	assert.Equal(t, content.Translations, env.storedContent(t, module.ID).Translations)
}

func TestTranslationService_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Translator = &fakeTranslator{err: errors.New("rate limited")}
		admin := env.seedAdmin(t, "ADM1")
		m := env.seedModule(t, "m", sampleContent())

		_, err := NewTranslationService(env.deps).TranslateModule(ctx, admin, &validator.TranslateRequest{ModuleID: m.ID, Mode: "training"})
		assert.ErrorIs(t, err, ErrTranslationFailed)
		assert.Zero(t, env.repo.contentWrites)
	})
	t.Run("no provider", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.seedAdmin(t, "ADM1")
		_, err := NewTranslationService(env.deps).TranslateModule(ctx, admin, &validator.TranslateRequest{ModuleID: 1, Mode: "training"})
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})
	t.Run("driver forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Translator = &fakeTranslator{}
		driver := env.seedUser(t, "DRV1", models.RoleBasic, "secret1")
		_, err := NewTranslationService(env.deps).TranslateModule(ctx, driver, &validator.TranslateRequest{ModuleID: 1, Mode: "training"})
		assert.ErrorIs(t, err, ErrForbidden)
	})
	t.Run("nothing to translate", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Translator = &fakeTranslator{}
		admin := env.seedAdmin(t, "ADM1")
		m := env.seedModule(t, "empty", models.ModuleContent{})
		_, err := NewTranslationService(env.deps).TranslateModule(ctx, admin, &validator.TranslateRequest{ModuleID: m.ID, Mode: "training"})
		assert.ErrorIs(t, err, ErrNothingToTranslate)
	})
	t.Run("only unknown slide ids", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Translator = &fakeTranslator{response: `{"translations":{"hi":{"ghost":"x"}}}`}
		admin := env.seedAdmin(t, "ADM1")
		m := env.seedModule(t, "m", sampleContent())
		_, err := NewTranslationService(env.deps).TranslateModule(ctx, admin, &validator.TranslateRequest{ModuleID: m.ID, Mode: "training"})
		assert.ErrorIs(t, err, ErrInvalidTranslationResponse)
		assert.Zero(t, env.repo.contentWrites)
	})
}

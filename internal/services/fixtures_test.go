package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/cache"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/events"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/security"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/storage"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

type testEnv struct {
	deps      *Dependencies
	repo      *memoryRepository
	publisher *events.MockEventPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cipher, err := security.NewFieldCipher(nil)
	require.NoError(t, err)

	repo := newMemoryRepository()
	publisher := events.NewMockEventPublisher()
	return &testEnv{
		repo:      repo,
		publisher: publisher,
		deps: &Dependencies{
			Repo:      repo,
			Cache:     cache.NewCacheManager(nil),
			Hasher:    security.NewPasswordHasherWithCost(4),
			Cipher:    cipher,
			Recorder:  events.NewRecorder(publisher, utils.NewSlogLogger(logger)),
			Validator: validator.New(),
			Languages: []string{"en", "hi", "bn"},
			Logger:    logger,
		},
	}
}

// seedAdmin stores an ADMIN with a password and returns its session
func (e *testEnv) seedAdmin(t *testing.T, employeeID string) *session.Claims {
	t.Helper()
	return e.seedUser(t, employeeID, models.RoleAdmin, "secret123")
}

func (e *testEnv) seedUser(t *testing.T, employeeID string, role models.UserRole, password string) *session.Claims {
	t.Helper()
	u := &models.User{EmployeeID: employeeID, FullName: employeeID + " User", Role: role}
	if password != "" {
		hash, err := e.deps.Hasher.Hash(password)
		require.NoError(t, err)
		u.PasswordHash = &hash
	}
	require.NoError(t, e.repo.User().Create(context.Background(), u))
	return claimsFor(u)
}

func (e *testEnv) seedModule(t *testing.T, slug string, content models.ModuleContent) *models.Module {
	t.Helper()
	m := &models.Module{
		Slug:         slug,
		Title:        "Module " + slug,
		PassingMarks: 50,
		IsActive:     true,
		Content:      datatypes.NewJSONType(content),
	}
	require.NoError(t, e.repo.Module().Create(context.Background(), m))
	return m
}

func (e *testEnv) storedContent(t *testing.T, id uint) models.ModuleContent {
	t.Helper()
	m, err := e.repo.Module().GetByID(context.Background(), id)
	require.NoError(t, err)
	return m.Content.Data()
}

func sampleContent() models.ModuleContent {
	return models.ModuleContent{
		Training: models.SlideSet{Slides: []models.Slide{
			{ID: "t1", Type: models.SlideContent, Title: "Mirrors", Content: "Check mirrors every five seconds."},
			{ID: "t2", Type: models.SlideContent, Content: "Keep two seconds of distance."},
		}},
		Assessment: models.SlideSet{Slides: []models.Slide{
			{ID: "q1", Type: models.SlideQuiz, Question: "How often do you check mirrors?", Options: []models.QuizOption{
				{ID: "a", Text: "Every five seconds", IsCorrect: true},
				{ID: "b", Text: "Never"},
			}},
			{ID: "q2", Type: models.SlideQuiz, Question: "Safe distance?", Options: []models.QuizOption{
				{ID: "a", Text: "Half a second"},
				{ID: "b", Text: "Two seconds", IsCorrect: true},
			}},
		}},
	}
}

func strPtr(s string) *string { return &s }

// ===== PROVIDER FAKES =====

type fakeTranslator struct {
	response string
	err      error
	calls    int
	lastUser string
}

func (f *fakeTranslator) TranslateJSON(ctx context.Context, system, user string) (string, error) {
	f.calls++
	f.lastUser = user
	return f.response, f.err
}

type fakeSpeech struct {
	mu     sync.Mutex
	calls  int
	failOn map[string]bool // lang
	delay  time.Duration
	// beforeCall runs before each synthesis with the 1-based call number
	beforeCall func(n int)
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	hook := f.beforeCall
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failOn[lang] {
		return nil, errors.New("voice unavailable")
	}
	return []byte("mp3:" + lang + ":" + text), nil
}

func (f *fakeSpeech) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	domain   string
	failCopy map[string]bool // source key
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte), domain: "https://cdn.example.com"}
}

func (f *fakeStore) SignUpload(ctx context.Context, filename, fileType, folder string) (*models.SignedUpload, error) {
	key, err := storage.UploadKey(folder, filename)
	if err != nil {
		return nil, err
	}
	if fileType != "audio/mpeg" && fileType != "image/png" {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnsupportedFileType, fileType)
	}
	return &models.SignedUpload{
		UploadURL: "https://bucket.example.com/" + key + "?signature=x",
		PublicURL: f.PublicURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(storage.UploadURLExpiry),
	}, nil
}

func (f *fakeStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[srcKey]
	if !ok || f.failCopy[srcKey] {
		return fmt.Errorf("copy %s: unavailable", srcKey)
	}
	f.objects[dstKey] = data
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) object(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.objects[key])
}

func (f *fakeStore) PublicURL(key string) string {
	return storage.PublicURL(f.domain, key)
}

func (f *fakeStore) keys() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

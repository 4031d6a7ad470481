package storage

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/config"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestStore(t *testing.T, domain string) ObjectStore {
	t.Helper()
	// With a region configured the client signs locally and never calls out.
	s, err := NewObjectStore(config.StorageConfig{
		Endpoint:     "storage.example.test:9000",
		AccessKey:    "access",
		SecretKey:    "secret-secret",
		Bucket:       "prodriver",
		Region:       "us-east-1",
		PublicDomain: domain,
	}, testLogger())
	require.NoError(t, err)
	return s
}

func TestAudioObjectKey(t *testing.T) {
	tests := []struct {
		name  string
		id    uint
		mode  models.ContentMode
		index int
		lang  string
		want  string
	}{
		{"training english", 5, models.ModeTraining, 1, "en", "5/training/audio/1_EN.mp3"},
		{"assessment uses test segment", 5, models.ModeAssessment, 3, "hi", "5/test/audio/3_HI.mp3"},
		{"already upper", 12, models.ModeTraining, 10, "BN", "12/training/audio/10_BN.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AudioObjectKey(tt.id, tt.mode, tt.index, tt.lang)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, AudioObjectKey(tt.id, tt.mode, tt.index, tt.lang))
		})
	}
}

func TestAudioObjectKey_OnlyChangedSegmentDiffers(t *testing.T) {
	base := strings.Split(AudioObjectKey(5, models.ModeTraining, 1, "en"), "/")
	byIndex := strings.Split(AudioObjectKey(5, models.ModeTraining, 2, "en"), "/")
	byLang := strings.Split(AudioObjectKey(5, models.ModeTraining, 1, "ta"), "/")

	require.Len(t, byIndex, len(base))
	assert.Equal(t, base[:3], byIndex[:3])
	assert.Equal(t, "2_EN.mp3", byIndex[3])
	assert.Equal(t, base[:3], byLang[:3])
	assert.Equal(t, "1_TA.mp3", byLang[3])
}

func TestUploadKey(t *testing.T) {
	valid := map[string][2]string{
		"5/training/audio/1_EN.mp3": {"5/training/audio", "1_EN.mp3"},
		"images/cover.png":          {"/images/", "cover.png"},
	}
	for want, in := range valid {
		got, err := UploadKey(in[0], in[1])
		require.NoError(t, err, want)
		assert.Equal(t, want, got)
	}

	invalid := [][2]string{
		{"", "a.mp3"},
		{"audio", ""},
		{"../etc", "passwd"},
		{"a/../../b", "x.png"},
		{"a//b", "x.png"},
		{"audio", "../x.mp3"},
		{"audio", `sub\x.mp3`},
		{`a\b`, "x.mp3"},
	}
	for _, in := range invalid {
		_, err := UploadKey(in[0], in[1])
		assert.ErrorIs(t, err, ErrInvalidKey, "%v", in)
	}
}

func TestResolveContentType(t *testing.T) {
	ct, err := ResolveContentType("", "1_EN.mp3")
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", ct)

	ct, err = ResolveContentType("IMAGE/PNG", "cover.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = ResolveContentType("application/x-sh", "run.sh")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestSignUpload_PublicURL(t *testing.T) {
	s := newTestStore(t, "https://cdn.example.test/")

	signed, err := s.SignUpload(context.Background(), "1_EN.mp3", "", "5/training/audio")
	require.NoError(t, err)

	assert.Equal(t, "5/training/audio/1_EN.mp3", signed.Key)
	assert.True(t, strings.HasSuffix(signed.PublicURL, "5/training/audio/1_EN.mp3"))
	assert.Equal(t, "https://cdn.example.test/5/training/audio/1_EN.mp3", signed.PublicURL)

	u, err := url.Parse(signed.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "60", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Path, "5/training/audio/1_EN.mp3")
}

func TestSignUpload_Rejects(t *testing.T) {
	s := newTestStore(t, "https://cdn.example.test")

	_, err := s.SignUpload(context.Background(), "x.mp3", "", "../secret")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = s.SignUpload(context.Background(), "x.exe", "application/octet-stream", "uploads")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestPublicURL_FallsBackToBucketPath(t *testing.T) {
	s := newTestStore(t, "")
	assert.Equal(t, "http://storage.example.test:9000/prodriver/a/b.png", s.PublicURL("a/b.png"))
}

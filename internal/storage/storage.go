package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/config"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

const UploadURLExpiry = 60 * time.Second

var ErrUnsupportedFileType = errors.New("unsupported file type")

var allowedFileTypes = map[string]struct{}{
	"audio/mpeg":       {},
	"audio/wav":        {},
	"image/png":        {},
	"image/jpeg":       {},
	"image/webp":       {},
	"image/gif":        {},
	"video/mp4":        {},
	"application/pdf":  {},
	"application/json": {},
}

var extensionTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".json": "application/json",
}

// ObjectStore is the part of the bucket the pipelines need.
type ObjectStore interface {
	SignUpload(ctx context.Context, filename, fileType, folder string) (*models.SignedUpload, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Exists(ctx context.Context, key string) bool
	Copy(ctx context.Context, srcKey, dstKey string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

type minioStore struct {
	client       *minio.Client
	bucket       string
	publicDomain string
	logger       utils.Logger
	now          func() time.Time
}

func NewObjectStore(cfg config.StorageConfig, logger utils.Logger) (ObjectStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("storage endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	domain := cfg.PublicDomain
	if domain == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		domain = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &minioStore{
		client:       client,
		bucket:       cfg.Bucket,
		publicDomain: domain,
		logger:       logger,
		now:          time.Now,
	}, nil
}

func (s *minioStore) SignUpload(ctx context.Context, filename, fileType, folder string) (*models.SignedUpload, error) {
	key, err := UploadKey(folder, filename)
	if err != nil {
		return nil, err
	}
	if _, err := ResolveContentType(fileType, filename); err != nil {
		return nil, err
	}

	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, UploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &models.SignedUpload{
		UploadURL: u.String(),
		PublicURL: s.PublicURL(key),
		Key:       key,
		ExpiresAt: s.now().Add(UploadURLExpiry),
	}, nil
}

func (s *minioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Exists is best-effort: any probe failure reads as "not there".
func (s *minioStore) Exists(ctx context.Context, key string) bool {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true
	}
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode != http.StatusNotFound && resp.Code != "NoSuchKey" {
		s.logger.Warn("Object existence probe failed", "key", key, "error", err)
	}
	return false
}

func (s *minioStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey},
	)
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", srcKey, dstKey, err)
	}
	return nil
}

func (s *minioStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *minioStore) PublicURL(key string) string {
	return PublicURL(s.publicDomain, key)
}

// ResolveContentType checks the declared type, or infers one from the extension.
func ResolveContentType(fileType, filename string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(fileType))
	if ct == "" {
		ext := strings.ToLower(path.Ext(filename))
		if known, ok := extensionTypes[ext]; ok {
			ct = known
		} else if guessed, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil {
			ct = guessed
		}
	}
	if _, ok := allowedFileTypes[ct]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ct)
	}
	return ct, nil
}

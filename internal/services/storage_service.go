package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/storage"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

type storageService struct {
	*Dependencies
}

func NewStorageService(deps *Dependencies) StorageService {
	return &storageService{Dependencies: deps}
}

// SignUpload issues a short-lived PUT URL; the browser uploads directly to the bucket
func (s *storageService) SignUpload(ctx context.Context, actor *session.Claims, req *validator.SignUploadRequest) (*models.SignedUpload, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if s.Store == nil {
		return nil, ErrStorageUnavailable
	}

	signed, err := s.Store.SignUpload(ctx, req.Filename, req.FileType, req.Folder)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) || errors.Is(err, storage.ErrUnsupportedFileType) {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		s.Logger.Error("Failed to sign upload", "folder", req.Folder, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.Logger.Info("Upload signed", "key", signed.Key, "by", actor.UserID)
	return signed, nil
}

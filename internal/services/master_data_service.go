package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/cache"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
)

// masterDataService has no version column; concurrent renames are last-writer-wins
type masterDataService struct {
	*Dependencies
}

func NewMasterDataService(deps *Dependencies) MasterDataService {
	return &masterDataService{Dependencies: deps}
}

func (s *masterDataService) List(ctx context.Context, kind models.MasterDataKind) ([]models.MasterDataItem, error) {
	if !kind.Valid() {
		return nil, validationf("unknown master data kind %q", kind)
	}

	var items []models.MasterDataItem
	err := s.Cache.MasterData.CacheOrExecute(ctx, string(kind), &items, cache.MasterDataCacheConfig.TTL, func() (interface{}, error) {
		rows, err := s.Repo.MasterData().List(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", kind, err)
		}
		if rows == nil {
			rows = []models.MasterDataItem{}
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *masterDataService) Create(ctx context.Context, actor *session.Claims, kind models.MasterDataKind, name string) (*models.MasterDataItem, error) {
	if err := s.check(actor, kind, name); err != nil {
		return nil, err
	}

	item, err := s.Repo.MasterData().Create(ctx, kind, name)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s %q already exists", ErrConflict, kind, strings.TrimSpace(name))
		}
		return nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}

	s.changed(ctx, actor, kind, "create", item.ID, item.Name)
	return item, nil
}

func (s *masterDataService) Rename(ctx context.Context, actor *session.Claims, kind models.MasterDataKind, id uint, name string) error {
	if err := s.check(actor, kind, name); err != nil {
		return err
	}

	if err := s.Repo.MasterData().Rename(ctx, kind, id, name); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return fmt.Errorf("%w: %s %q already exists", ErrConflict, kind, strings.TrimSpace(name))
		}
		return mapRepoErr(err, ErrMasterDataNotFound, "rename "+string(kind))
	}

	s.changed(ctx, actor, kind, "rename", id, strings.TrimSpace(name))
	return nil
}

// Delete detaches referencing users rather than refusing the delete
func (s *masterDataService) Delete(ctx context.Context, actor *session.Claims, kind models.MasterDataKind, id uint) error {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return err
	}
	if !kind.Valid() {
		return validationf("unknown master data kind %q", kind)
	}

	if err := s.Repo.MasterData().Delete(ctx, kind, id); err != nil {
		return mapRepoErr(err, ErrMasterDataNotFound, "delete "+string(kind))
	}

	s.changed(ctx, actor, kind, "delete", id, "")
	return nil
}

func (s *masterDataService) check(actor *session.Claims, kind models.MasterDataKind, name string) error {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return err
	}
	if !kind.Valid() {
		return validationf("unknown master data kind %q", kind)
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return validationf("name must be 1-100 characters")
	}
	return nil
}

func (s *masterDataService) changed(ctx context.Context, actor *session.Claims, kind models.MasterDataKind, op string, id uint, name string) {
	cache.InvalidateMasterData(ctx, s.Cache, string(kind))
	meta := map[string]interface{}{"kind": kind, "op": op}
	if name != "" {
		meta["name"] = name
	}
	s.Recorder.Record(ctx, models.AuditMasterDataChanged, actor.UserID, fmt.Sprintf("%s:%d", kind, id), meta)
}

package services

import (
	"context"
	"fmt"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
)

type auditService struct {
	*Dependencies
}

func NewAuditService(deps *Dependencies) AuditService {
	return &auditService{Dependencies: deps}
}

func (s *auditService) List(ctx context.Context, actor *session.Claims, filters models.AuditFilters) (*models.PaginatedResponse, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	filters.Page = pageNumber(filters.Page)
	filters.Size = pageSize(filters.Size)

	logs, total, err := s.Repo.Audit().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return models.NewPage(logs, len(logs), total, filters.Page, filters.Size), nil
}

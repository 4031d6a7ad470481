package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/cache"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
)

const (
	statsCacheKey       = "admin"
	recentActivityLimit = 10
)

type dashboardService struct {
	*Dependencies
	now func() time.Time
}

func NewDashboardService(deps *Dependencies) DashboardService {
	return &dashboardService{Dependencies: deps, now: time.Now}
}

func (s *dashboardService) GetStats(ctx context.Context, actor *session.Claims) (*models.DashboardStats, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	var stats models.DashboardStats
	err := s.Cache.Stats.CacheOrExecute(ctx, statsCacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.compute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// compute runs the independent aggregates concurrently; the first failure cancels the rest
func (s *dashboardService) compute(ctx context.Context) (*models.DashboardStats, error) {
	s.Logger.Info("Computing dashboard stats")

	var (
		users       repositories.UserCounts
		modules     repositories.ModuleCounts
		assignments repositories.AssignmentCounts
		byModule    []models.ModuleCompletion
		byTeam      []models.TeamCompletion
		recent      []models.AuditLog
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if users, err = s.Repo.Dashboard().UserCounts(gctx); err != nil {
			return fmt.Errorf("failed to get user counts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if modules, err = s.Repo.Dashboard().ModuleCounts(gctx); err != nil {
			return fmt.Errorf("failed to get module counts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if assignments, err = s.Repo.Dashboard().AssignmentCounts(gctx); err != nil {
			return fmt.Errorf("failed to get assignment counts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if byModule, err = s.Repo.Dashboard().ModuleBreakdown(gctx); err != nil {
			return fmt.Errorf("failed to get module breakdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if byTeam, err = s.Repo.Dashboard().TeamBreakdown(gctx); err != nil {
			return fmt.Errorf("failed to get team breakdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if recent, err = s.Repo.Audit().Recent(gctx, recentActivityLimit); err != nil {
			// Recent activity is decorative; the dashboard renders without it
			s.Logger.Warn("Failed to get recent activity", "error", err)
			recent = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range byModule {
		m := &byModule[i]
		m.CompletionRate = percentage(m.Completed, m.Assigned)
		m.PassRate = percentage(m.Passed, m.Assigned)
	}
	for i := range byTeam {
		t := &byTeam[i]
		t.CompletionRate = percentage(t.Completed, t.Assigned)
		if t.TeamName == "" {
			t.TeamName = "Unassigned"
		}
	}
	if byModule == nil {
		byModule = []models.ModuleCompletion{}
	}
	if byTeam == nil {
		byTeam = []models.TeamCompletion{}
	}
	if recent == nil {
		recent = []models.AuditLog{}
	}
	distribution := assignments.ByTrainingStatus
	if distribution == nil {
		distribution = map[string]int64{}
	}

	return &models.DashboardStats{
		TotalUsers:         users.Total,
		ActiveUsers:        users.Total - users.Pending,
		PendingUsers:       users.Pending,
		TotalModules:       modules.Total,
		ActiveModules:      modules.Active,
		TotalAssignments:   assignments.Total,
		TrainingCompleted:  assignments.TrainingCompleted,
		TestsPassed:        assignments.Passed,
		TestsFailed:        assignments.Failed,
		CompletionRate:     percentage(assignments.TrainingCompleted, assignments.Total),
		PassRate:           percentage(assignments.Passed, assignments.Total),
		AverageMarks:       roundFloat(assignments.AverageMarks, 1),
		ModuleBreakdown:    byModule,
		TeamBreakdown:      byTeam,
		RecentActivity:     recent,
		StatusDistribution: distribution,
		GeneratedAt:        s.now().UTC(),
	}, nil
}

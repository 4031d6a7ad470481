package repositories

import (
	"context"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
)

// DashboardRepository holds the read-only aggregate queries.
// Each method is independent so callers may run them concurrently.
type DashboardRepository interface {
	UserCounts(ctx context.Context) (UserCounts, error)
	ModuleCounts(ctx context.Context) (ModuleCounts, error)
	AssignmentCounts(ctx context.Context) (AssignmentCounts, error)
	ModuleBreakdown(ctx context.Context) ([]models.ModuleCompletion, error)
	TeamBreakdown(ctx context.Context) ([]models.TeamCompletion, error)
}

type UserCounts struct {
	Total   int64
	Pending int64
}

type ModuleCounts struct {
	Total  int64
	Active int64
}

type AssignmentCounts struct {
	Total             int64
	TrainingCompleted int64
	Passed            int64
	Failed            int64
	AverageMarks      float64
	ByTrainingStatus  map[string]int64
}

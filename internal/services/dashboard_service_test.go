package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
)

type fakeDashboard struct {
	users       repositories.UserCounts
	modules     repositories.ModuleCounts
	assignments repositories.AssignmentCounts
	byModule    []models.ModuleCompletion
	byTeam      []models.TeamCompletion
	teamErr     error
}

func (f *fakeDashboard) UserCounts(ctx context.Context) (repositories.UserCounts, error) {
	return f.users, nil
}

func (f *fakeDashboard) ModuleCounts(ctx context.Context) (repositories.ModuleCounts, error) {
	return f.modules, nil
}

func (f *fakeDashboard) AssignmentCounts(ctx context.Context) (repositories.AssignmentCounts, error) {
	return f.assignments, nil
}

func (f *fakeDashboard) ModuleBreakdown(ctx context.Context) ([]models.ModuleCompletion, error) {
	return f.byModule, nil
}

func (f *fakeDashboard) TeamBreakdown(ctx context.Context) ([]models.TeamCompletion, error) {
	return f.byTeam, f.teamErr
}

func TestDashboardService_GetStats(t *testing.T) {
	env := newTestEnv(t)
	env.repo.dashboard = &fakeDashboard{
		users:   repositories.UserCounts{Total: 10, Pending: 3},
		modules: repositories.ModuleCounts{Total: 4, Active: 3},
		assignments: repositories.AssignmentCounts{
			Total:             8,
			TrainingCompleted: 6,
			Passed:            4,
			Failed:            1,
			AverageMarks:      71.666,
			ByTrainingStatus:  map[string]int64{"COMPLETED": 6, "ONGOING": 2},
		},
		byModule: []models.ModuleCompletion{{ModuleID: 1, Title: "Mirrors", Assigned: 3, Completed: 1, Passed: 1}},
		byTeam:   []models.TeamCompletion{{TeamName: "", Assigned: 4, Completed: 2}},
	}
	admin := env.seedAdmin(t, "ADM1")
	svc := &dashboardService{Dependencies: env.deps, now: func() time.Time {
		return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	}}

	stats, err := svc.GetStats(context.Background(), admin)
	require.NoError(t, err)

	assert.EqualValues(t, 7, stats.ActiveUsers)
	assert.EqualValues(t, 3, stats.ActiveModules)
	assert.Equal(t, 75.0, stats.CompletionRate)
	assert.Equal(t, 50.0, stats.PassRate)
	assert.Equal(t, 71.7, stats.AverageMarks)
	assert.Equal(t, 33.3, stats.ModuleBreakdown[0].CompletionRate)
	assert.Equal(t, "Unassigned", stats.TeamBreakdown[0].TeamName)
	assert.Equal(t, 50.0, stats.TeamBreakdown[0].CompletionRate)
	assert.EqualValues(t, 2, stats.StatusDistribution["ONGOING"])
	assert.NotNil(t, stats.RecentActivity)
	assert.Equal(t, 2026, stats.GeneratedAt.Year())
}

func TestDashboardService_FailureAndAccess(t *testing.T) {
	env := newTestEnv(t)
	env.repo.dashboard = &fakeDashboard{teamErr: errors.New("connection reset")}
	svc := NewDashboardService(env.deps)

	_, err := svc.GetStats(context.Background(), env.seedUser(t, "DRV1", models.RoleBasic, "secret1"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetStats(context.Background(), env.seedAdmin(t, "ADM1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "team breakdown")
}

func TestReportService_AssignmentReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedAdmin(t, "ADM1")
	driver := env.seedUser(t, "DRV1", models.RoleBasic, "secret1")
	module := env.seedModule(t, "mirrors", sampleContent())
	marks := 80.0
	require.NoError(t, env.repo.Assignment().Create(ctx, &models.TrainingAssignment{
		UserID:         driver.RecordID,
		ModuleID:       module.ID,
		TrainingStatus: models.TrainingCompleted,
		TestStatus:     models.TestPassed,
		MarksObtained:  &marks,
	}))

	svc := &reportService{Dependencies: env.deps, now: func() time.Time {
		return time.Date(2026, 5, 4, 13, 2, 1, 0, time.UTC)
	}}
	file, err := svc.AssignmentReport(ctx, admin, models.AssignmentFilters{})
	require.NoError(t, err)
	assert.Equal(t, "assignments-20260504-130201.xlsx", file.Filename)
	assert.Equal(t, xlsxContentType, file.ContentType)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Employee ID", rows[0][0])
	assert.Equal(t, "DRV1", rows[1][0])
	assert.Equal(t, "Module mirrors", rows[1][5])
	assert.Equal(t, "PASSED", rows[1][7])
	assert.Equal(t, "80", rows[1][8])

	assert.Contains(t, env.publisher.Actions(), string(models.AuditReportExported))

	_, err = svc.AssignmentReport(ctx, driver, models.AssignmentFilters{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBuildAssignmentWorkbook_Empty(t *testing.T) {
	data, err := BuildAssignmentWorkbook(nil)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(reportHeader))
}

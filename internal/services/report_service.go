package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
)

const (
	reportSheet       = "Assignments"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportDateLayout  = "2006-01-02"
	reportFileLayout  = "20060102-150405"
	reportColumnWidth = 20
)

var reportHeader = []interface{}{
	"Employee ID", "Full Name", "Team", "Designation", "Location",
	"Module", "Training Status", "Test Status", "Marks", "Completed On", "Assigned On",
}

type reportService struct {
	*Dependencies
	now func() time.Time
}

func NewReportService(deps *Dependencies) ReportService {
	return &reportService{Dependencies: deps, now: time.Now}
}

func (s *reportService) AssignmentReport(ctx context.Context, actor *session.Claims, filters models.AssignmentFilters) (*FileDownload, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	rows, err := s.Repo.Assignment().ReportRows(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load report rows: %w", err)
	}

	data, err := BuildAssignmentWorkbook(rows)
	if err != nil {
		return nil, err
	}

	s.Recorder.Record(ctx, models.AuditReportExported, actor.UserID, "", map[string]interface{}{
		"rows": len(rows),
	})
	return &FileDownload{
		Filename:    fmt.Sprintf("assignments-%s.xlsx", s.now().UTC().Format(reportFileLayout)),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

// BuildAssignmentWorkbook renders one row per assignment under a frozen header
func BuildAssignmentWorkbook(rows []models.ReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(reportHeader))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(reportSheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(reportSheet, "A", lastCol, reportColumnWidth); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetPanes(reportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.EmployeeID,
			r.FullName,
			r.Team,
			r.Designation,
			r.Location,
			r.ModuleTitle,
			string(r.TrainingStatus),
			string(r.TestStatus),
			marksCell(r.MarksObtained),
			dateCell(r.CompletionDate),
			r.AssignedAt.Format(reportDateLayout),
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func marksCell(m *float64) interface{} {
	if m == nil {
		return ""
	}
	return *m
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(reportDateLayout)
}

package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"estateleads_backend/platform/logger"

	"github.com/tealeg/xlsx/v2"
)

const (
	// Conversion-rate bands for the per-agent insight.
	rateNeedsCoaching = 0.10
	rateAcceptable    = 0.30

	// An agent with no assignment in this window is flagged as low activity.
	lowActivityWindow = 90 * 24 * time.Hour
)

const (
	InsightNeedsCoaching = "needs coaching"
	InsightAcceptable    = "acceptable"
	InsightStrong        = "strong performer"
	InsightNoData        = "no closed leads yet"
)

// ReportRow is an agent's aggregates plus the derived assessment.
type ReportRow struct {
	AgentPerformance
	Insight     string
	LowActivity bool
}

// PerformanceReader is the aggregate source; satisfied by *Repository.
type PerformanceReader interface {
	ListPerformance(ctx context.Context) ([]AgentPerformance, error)
}

// Uploader stores a generated report and returns a download URL.
type Uploader interface {
	UploadReport(ctx context.Context, objectName string, content []byte) (string, error)
}

// Service assembles agent performance reports.
type Service struct {
	reader   PerformanceReader
	uploader Uploader
	log      *logger.Logger
}

// NewService builds the report service. uploader may be nil when object
// storage is not configured; XLSX exports are then served inline only.
func NewService(reader PerformanceReader, uploader Uploader, log *logger.Logger) *Service {
	return &Service{reader: reader, uploader: uploader, log: log}
}

// Build returns the report rows with insights applied.
func (s *Service) Build(ctx context.Context) ([]ReportRow, error) {
	perf, err := s.reader.ListPerformance(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rows := make([]ReportRow, 0, len(perf))
	for _, p := range perf {
		rows = append(rows, ReportRow{
			AgentPerformance: p,
			Insight:          classify(p),
			LowActivity:      isLowActivity(p, now),
		})
	}
	return rows, nil
}

// ExportXLSX builds the report as an XLSX workbook. When an uploader is
// configured the workbook is stored and a download URL returned alongside
// the raw bytes.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, string, error) {
	rows, err := s.Build(ctx)
	if err != nil {
		return nil, "", err
	}

	content, err := renderWorkbook(rows)
	if err != nil {
		return nil, "", err
	}

	var downloadURL string
	if s.uploader != nil {
		objectName := fmt.Sprintf("agent-performance/%s.xlsx", time.Now().UTC().Format("2006-01-02T15-04-05"))
		downloadURL, err = s.uploader.UploadReport(ctx, objectName, content)
		if err != nil {
			// The workbook is still usable; report the storage failure and move on.
			s.log.Warn("report upload failed", "object", objectName, "error", err)
			downloadURL = ""
		}
	}

	return content, downloadURL, nil
}

// FleetConversionRate averages the conversion rate over agents that have at
// least one terminal lead. Agents without outcomes would drag the fleet
// number to zero without saying anything about performance.
func FleetConversionRate(rows []ReportRow) float64 {
	var sum float64
	var counted int
	for _, row := range rows {
		if row.ClosedCount+row.ConvertedCount == 0 {
			continue
		}
		sum += row.ConversionRate
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

func classify(p AgentPerformance) string {
	if p.ClosedCount+p.ConvertedCount == 0 {
		return InsightNoData
	}
	switch {
	case p.ConversionRate < rateNeedsCoaching:
		return InsightNeedsCoaching
	case p.ConversionRate < rateAcceptable:
		return InsightAcceptable
	default:
		return InsightStrong
	}
}

func isLowActivity(p AgentPerformance, now time.Time) bool {
	if p.LastAssignedAt == nil {
		return true
	}
	return now.Sub(*p.LastAssignedAt) > lowActivityWindow
}

func renderWorkbook(rows []ReportRow) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Agent Performance")
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, title := range []string{
		"Agent", "Assigned", "Open", "Closed", "Converted", "Conversion Rate", "Insight", "Low Activity",
	} {
		header.AddCell().Value = title
	}

	for _, row := range rows {
		r := sheet.AddRow()
		r.AddCell().Value = row.AgentName
		r.AddCell().SetInt(row.AssignedTotal)
		r.AddCell().SetInt(row.OpenCount)
		r.AddCell().SetInt(row.ClosedCount)
		r.AddCell().SetInt(row.ConvertedCount)
		r.AddCell().SetFloatWithFormat(row.ConversionRate, "0.0%")
		r.AddCell().Value = row.Insight
		r.AddCell().SetBool(row.LowActivity)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"estateleads_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx/v2"
)

type staticReader struct {
	perf []AgentPerformance
}

func (s *staticReader) ListPerformance(context.Context) ([]AgentPerformance, error) {
	return s.perf, nil
}

type captureUploader struct {
	objectName string
	content    []byte
	url        string
}

func (u *captureUploader) UploadReport(_ context.Context, objectName string, content []byte) (string, error) {
	u.objectName = objectName
	u.content = content
	return u.url, nil
}

func perfWith(rate float64, terminal int) AgentPerformance {
	converted := int(rate * float64(terminal))
	now := time.Now().UTC()
	return AgentPerformance{
		AgentID:        uuid.New(),
		AgentName:      "Agent",
		ClosedCount:    terminal - converted,
		ConvertedCount: converted,
		ConversionRate: rate,
		LastAssignedAt: &now,
	}
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		name string
		perf AgentPerformance
		want string
	}{
		{"no terminal leads", AgentPerformance{}, InsightNoData},
		{"below ten percent", perfWith(0.05, 20), InsightNeedsCoaching},
		{"boundary ten percent", perfWith(0.10, 20), InsightAcceptable},
		{"below thirty percent", perfWith(0.25, 20), InsightAcceptable},
		{"thirty percent and up", perfWith(0.40, 20), InsightStrong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.perf); got != tc.want {
				t.Errorf("classify(rate=%v) = %q, want %q", tc.perf.ConversionRate, got, tc.want)
			}
		})
	}
}

func TestFleetConversionRateSkipsAgentsWithoutOutcomes(t *testing.T) {
	rows := []ReportRow{
		{AgentPerformance: perfWith(0.20, 10)},
		{AgentPerformance: perfWith(0.40, 10)},
		{AgentPerformance: AgentPerformance{AgentName: "Fresh"}},
	}

	got := FleetConversionRate(rows)
	if got < 0.299 || got > 0.301 {
		t.Fatalf("expected fleet rate ~0.30, got %v", got)
	}

	if FleetConversionRate(nil) != 0 {
		t.Fatal("empty fleet must report zero")
	}
}

func TestLowActivityFlag(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-30 * 24 * time.Hour)
	old := now.Add(-120 * 24 * time.Hour)

	if isLowActivity(AgentPerformance{LastAssignedAt: &recent}, now) {
		t.Error("agent assigned 30 days ago flagged as low activity")
	}
	if !isLowActivity(AgentPerformance{LastAssignedAt: &old}, now) {
		t.Error("agent idle for 120 days not flagged")
	}
	if !isLowActivity(AgentPerformance{}, now) {
		t.Error("agent never assigned not flagged")
	}
}

func TestExportXLSXUploadsWorkbook(t *testing.T) {
	reader := &staticReader{perf: []AgentPerformance{
		perfWith(0.5, 10),
		perfWith(0.05, 20),
	}}
	uploader := &captureUploader{url: "https://storage.example/report.xlsx"}
	svc := NewService(reader, uploader, logger.New("test"))

	content, downloadURL, err := svc.ExportXLSX(context.Background())
	if err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}
	if downloadURL != uploader.url {
		t.Errorf("download URL = %q, want uploader URL", downloadURL)
	}
	if !bytes.Equal(content, uploader.content) {
		t.Error("returned bytes differ from uploaded bytes")
	}

	file, err := xlsx.OpenBinary(content)
	if err != nil {
		t.Fatalf("generated workbook does not parse: %v", err)
	}
	sheet := file.Sheets[0]
	if len(sheet.Rows) != 3 {
		t.Fatalf("workbook has %d rows, want header plus 2 agents", len(sheet.Rows))
	}
	if got := sheet.Rows[0].Cells[0].Value; got != "Agent" {
		t.Errorf("header cell = %q, want Agent", got)
	}
}

func TestExportXLSXWithoutUploader(t *testing.T) {
	svc := NewService(&staticReader{}, nil, logger.New("test"))

	content, downloadURL, err := svc.ExportXLSX(context.Background())
	if err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}
	if downloadURL != "" {
		t.Errorf("download URL = %q, want empty without storage", downloadURL)
	}
	if len(content) == 0 {
		t.Error("workbook is empty")
	}
}

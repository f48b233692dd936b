package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/ronda/internal/models"
)

func reportView() SessionView {
	start := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	end := start.Add(12 * time.Minute)
	verifiedAt := start.Add(3 * time.Minute)
	return SessionView{
		ID:        "s-1",
		StartedAt: start,
		EndedAt:   &end,
		Status:    models.SessionCompleted,
		Checkpoints: []CheckpointView{
			{
				Checkpoint: models.Checkpoint{ID: "a", Name: "Main gate", Latitude: 50.4501, Longitude: 30.5234, RadiusMeters: 50, TimeMinutes: 5},
				State:      models.StateVerified,
				VerifiedAt: &verifiedAt,
			},
			{
				Checkpoint: models.Checkpoint{ID: "b", Name: "Warehouse", Latitude: 50.4547, Longitude: 30.5238, RadiusMeters: 30, TimeMinutes: 5},
				State:      models.StateExpired,
			},
		},
		VerifiedCount: 1,
	}
}

func TestFormatReportSections(t *testing.T) {
	report := FormatReport(reportView())

	for _, want := range []string{
		"Started:  2025-06-01T22:00:00Z",
		"Ended:    2025-06-01T22:12:00Z",
		"Duration: 12m0s",
		"✅ Verified checkpoints:",
		"• Main gate (50.45010, 30.52340; radius 50 m; allotted 5 min)",
		"❌ Missed checkpoints:",
		"• Warehouse (50.45470, 30.52380; radius 30 m; allotted 5 min)",
		"• Total checkpoints: 2",
		"• Verified: 1",
		"• Missed: 1",
		"• Efficiency: 50%",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestFormatReportDeterministic(t *testing.T) {
	v := reportView()
	if FormatReport(v) != FormatReport(v) {
		t.Error("report should be deterministic for identical input")
	}
}

func TestFormatReportInProgress(t *testing.T) {
	v := reportView()
	v.EndedAt = nil
	report := FormatReport(v)
	if !strings.Contains(report, "in progress") {
		t.Errorf("active session report should say in progress:\n%s", report)
	}
	if strings.Contains(report, "Ended:") {
		t.Error("active session report should omit end time")
	}
}

func TestFormatReportAllVerified(t *testing.T) {
	v := reportView()
	v.Checkpoints[1].State = models.StateVerified
	v.VerifiedCount = 2
	report := FormatReport(v)
	if strings.Contains(report, "Missed checkpoints") {
		t.Error("fully verified report should omit missed section")
	}
	if !strings.Contains(report, "Efficiency: 100%") {
		t.Errorf("want 100%% efficiency:\n%s", report)
	}
}

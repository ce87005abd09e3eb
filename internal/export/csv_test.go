package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

func sampleReport() domain.InstanceReport {
	lat := 123.0
	tlat := 456.0
	probes := make([]domain.ProbeResult, 0, len(domain.BatteryOrder))
	for _, name := range domain.BatteryOrder {
		p := domain.ProbeResult{Name: name, Status: domain.StatusOK}
		switch name {
		case domain.ProbeReachability:
			p.LatencyMS = &lat
		case domain.ProbeTimeline:
			p.LatencyMS = &tlat
		case domain.ProbeSecurityHeaders:
			p.Status = domain.StatusDegraded
		}
		probes = append(probes, p)
	}
	return domain.InstanceReport{
		Instance:  "mastodon.social",
		CheckedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Probes:    probes,
		Score:     93,
		Label:     domain.LabelExcellent,
	}
}

func TestHeader_UsesExactProbeNames(t *testing.T) {
	want := []string{
		"instance", "score", "label",
		"reachability_status", "reachability_latency_ms",
		"api_status",
		"federation_status",
		"timeline_status", "timeline_latency_ms",
		"streaming_status",
		"media_status",
		"security_headers_status",
		"rate_limiting_status",
	}
	if diff := cmp.Diff(want, Header()); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []domain.InstanceReport{sampleReport()}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want header + 1 row, got %d rows", len(rows))
	}
	if diff := cmp.Diff(Header(), rows[0]); diff != "" {
		t.Fatalf("header row mismatch (-want +got):\n%s", diff)
	}

	want := []string{
		"mastodon.social", "93", "Excellent",
		"OK", "123",
		"OK",
		"OK",
		"OK", "456",
		"OK",
		"OK",
		"DEGRADED",
		"OK",
	}
	if diff := cmp.Diff(want, rows[1]); diff != "" {
		t.Fatalf("data row mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV_EmptyLatencyCellsWhenSkipped(t *testing.T) {
	rep := domain.InstanceReport{Instance: "down.example", Score: 0, Label: domain.LabelPoor}
	for _, name := range domain.BatteryOrder {
		rep.Probes = append(rep.Probes, domain.ProbeResult{Name: name, Status: domain.StatusUnknown})
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []domain.InstanceReport{rep}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	// reachability_latency_ms is column index 4
	if rows[1][4] != "" {
		t.Fatalf("want empty latency cell, got %q", rows[1][4])
	}
}

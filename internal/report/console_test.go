package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

func sampleReport(instance string, score int) domain.InstanceReport {
	lat := 120.0
	probes := make([]domain.ProbeResult, 0, len(domain.BatteryOrder))
	for _, name := range domain.BatteryOrder {
		p := domain.ProbeResult{Name: name, Status: domain.StatusOK}
		switch name {
		case domain.ProbeReachability:
			p.LatencyMS = &lat
		case domain.ProbeAPI:
			p.Fields = map[string]string{"api": "v2", "title": "Test", "version": "4.2.0"}
		case domain.ProbeSecurityHeaders:
			p.Status = domain.StatusDegraded
			p.Detail = "3/5 present"
			p.Fields = map[string]string{
				"Strict-Transport-Security": "true",
				"Content-Security-Policy":   "false",
			}
		}
		probes = append(probes, p)
	}
	return domain.InstanceReport{
		Instance:  instance,
		CheckedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Probes:    probes,
		Score:     score,
		Label:     domain.LabelExcellent,
	}
}

func TestWriteReport_ContainsScoreAndProbes(t *testing.T) {
	var buf bytes.Buffer
	rep := sampleReport("mastodon.social", 93)
	WriteReport(&buf, &rep)

	out := buf.String()
	for _, want := range []string{
		"mastodon.social",
		"93/100 (Excellent)",
		"reachability",
		"security_headers",
		"3/5 present",
		"120 ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRanking_ListsInstancesInOrder(t *testing.T) {
	var buf bytes.Buffer
	table := domain.ComparisonTable{Rows: []domain.InstanceReport{
		sampleReport("first.example", 95),
		sampleReport("second.example", 60),
	}}
	WriteRanking(&buf, &table)

	out := buf.String()
	first := strings.Index(out, "first.example")
	second := strings.Index(out, "second.example")
	if first == -1 || second == -1 || first > second {
		t.Fatalf("ranking order wrong:\n%s", out)
	}
}

func TestWriteTick(t *testing.T) {
	var buf bytes.Buffer
	tick := domain.MonitorTick{
		At:      time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Reports: []domain.InstanceReport{sampleReport("mastodon.social", 93)},
	}
	WriteTick(&buf, &tick)

	out := buf.String()
	if !strings.Contains(out, "mastodon.social: 93/100") {
		t.Fatalf("tick output missing summary line:\n%s", out)
	}
}

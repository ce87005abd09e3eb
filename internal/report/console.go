// Package report renders reports for the console. It only formats data the
// core already produced; nothing here touches the network.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

const rule = "================================================================================"

// WriteReport prints the detailed single-instance report.
func WriteReport(w io.Writer, r *domain.InstanceReport) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Health report: %s (%s)\n\n", r.Instance, r.CheckedAt.Format("2006-01-02 15:04:05"))

	if api := r.Probe(domain.ProbeAPI); api != nil && api.Status == domain.StatusOK {
		fmt.Fprintln(w, "Instance:")
		fmt.Fprintf(w, "   Title:   %s\n", valueOr(api.Fields["title"], "n/a"))
		fmt.Fprintf(w, "   Version: %s\n", valueOr(api.Fields["version"], "n/a"))
		fmt.Fprintf(w, "   API:     %s\n\n", valueOr(api.Fields["api"], "n/a"))
	}

	if fed := r.Probe(domain.ProbeFederation); fed != nil && fed.Status == domain.StatusOK {
		fmt.Fprintln(w, "Software:")
		fmt.Fprintf(w, "   Name:    %s\n", valueOr(fed.Fields["software"], "n/a"))
		fmt.Fprintf(w, "   Version: %s\n\n", valueOr(fed.Fields["software_version"], "n/a"))
	}

	fmt.Fprintln(w, "Performance:")
	fmt.Fprintf(w, "   Base latency:     %s\n", latencyText(r.Probe(domain.ProbeReachability)))
	fmt.Fprintf(w, "   Timeline latency: %s\n\n", latencyText(r.Probe(domain.ProbeTimeline)))

	fmt.Fprintln(w, "Probes:")
	for _, p := range r.Probes {
		line := fmt.Sprintf("   %-18s %s", p.Name, p.Status)
		if p.Detail != "" {
			line += "  (" + p.Detail + ")"
		}
		fmt.Fprintln(w, line)
	}

	if sec := r.Probe(domain.ProbeSecurityHeaders); sec != nil && len(sec.Fields) > 0 {
		fmt.Fprintln(w, "\nSecurity headers:")
		for _, header := range sortedKeys(sec.Fields) {
			mark := "missing"
			if sec.Fields[header] == "true" {
				mark = "present"
			}
			fmt.Fprintf(w, "   %-28s %s\n", header, mark)
		}
	}

	fmt.Fprintf(w, "\nScore: %d/100 (%s)\n", r.Score, r.Label)
	fmt.Fprintln(w, rule)
}

// WriteRanking prints the comparison table in rank order.
func WriteRanking(w io.Writer, table *domain.ComparisonTable) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Ranking:")
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tinstance\tscore\tlabel\tlatency\tapi")
	for i := range table.Rows {
		r := &table.Rows[i]
		api := "n/a"
		if p := r.Probe(domain.ProbeAPI); p != nil {
			api = string(p.Status)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d/100\t%s\t%s\t%s\n",
			i+1, r.Instance, r.Score, r.Label, latencyText(r.Probe(domain.ProbeReachability)), api)
	}
	tw.Flush()
	fmt.Fprintln(w, rule)
}

// WriteTick prints one monitor tick as a compact line per instance.
func WriteTick(w io.Writer, tick *domain.MonitorTick) {
	fmt.Fprintf(w, "[%s]\n", tick.At.Format("2006-01-02 15:04:05"))
	for i := range tick.Reports {
		r := &tick.Reports[i]
		fmt.Fprintf(w, "   %s: %d/100 (%s)\n", r.Instance, r.Score, r.Label)
	}
	fmt.Fprintln(w)
}

func latencyText(p *domain.ProbeResult) string {
	if p == nil || p.LatencyMS == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f ms", *p.LatencyMS)
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package export writes instance reports as CSV rows.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

// timedProbes are the battery members that measure latency and therefore get
// an extra column.
var timedProbes = map[domain.ProbeName]bool{
	domain.ProbeReachability: true,
	domain.ProbeTimeline:     true,
}

// Header returns the column names: instance, score, label, then per probe a
// `<name>_status` column and, for timed probes, `<name>_latency_ms`. Probe
// names match domain.BatteryOrder exactly so the file round-trips.
func Header() []string {
	cols := []string{"instance", "score", "label"}
	for _, name := range domain.BatteryOrder {
		cols = append(cols, string(name)+"_status")
		if timedProbes[name] {
			cols = append(cols, string(name)+"_latency_ms")
		}
	}
	return cols
}

// WriteCSV writes a header row plus one row per report.
func WriteCSV(w io.Writer, reports []domain.InstanceReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range reports {
		if err := cw.Write(row(&reports[i])); err != nil {
			return fmt.Errorf("write csv row for %s: %w", reports[i].Instance, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFile exports reports to path, creating or truncating it.
func WriteFile(path string, reports []domain.InstanceReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, reports); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func row(r *domain.InstanceReport) []string {
	cells := []string{r.Instance, strconv.Itoa(r.Score), string(r.Label)}
	for _, name := range domain.BatteryOrder {
		p := r.Probe(name)
		if p == nil {
			cells = append(cells, string(domain.StatusUnknown))
			if timedProbes[name] {
				cells = append(cells, "")
			}
			continue
		}
		cells = append(cells, string(p.Status))
		if timedProbes[name] {
			if p.LatencyMS != nil {
				cells = append(cells, strconv.FormatFloat(*p.LatencyMS, 'f', 0, 64))
			} else {
				cells = append(cells, "")
			}
		}
	}
	return cells
}

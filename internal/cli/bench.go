package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Davincible/shamir-accel/internal/bench"
	"github.com/Davincible/shamir-accel/pkg/metrics"
)

func newBenchCommand(a *app) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the reference vectors through every mode and field",
		Long: `Run a fixed table of brute-force, share generation and reconstruction
vectors through the driver, checking every answer against software field
arithmetic and reporting cycles and wall time per case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := bench.Run(a.ctx(cmd), a.driver)
			if err != nil {
				return fmt.Errorf("benchmark aborted: %w", err)
			}

			out := cmd.OutOrStdout()
			if a.json {
				if err := writeJSON(out, results); err != nil {
					return err
				}
			} else {
				printBench(out, results)
				if showMetrics {
					if err := printMetrics(out); err != nil {
						return err
					}
				}
			}

			if !bench.Passed(results) {
				return fmt.Errorf("benchmark failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print device counters after the run")

	return cmd
}

func printBench(w io.Writer, results []bench.Result) {
	titleColor.Fprintln(w, "=== ACCELERATOR BENCHMARK ===")
	labelColor.Fprintf(w, "%-12s %-9s %-30s %-12s %-10s %s\n", "Mode", "Field", "Case", "Result", "Cycles", "Time")

	passed := 0
	for _, r := range results {
		fmt.Fprintf(w, "%-12s %-9s %-30s 0x%-10X %-10d %-12v ", r.Mode, r.Field, r.Case, r.Got, r.Cycles, r.Elapsed)
		if r.Pass {
			passed++
			okColor.Fprintln(w, "PASS")
		} else {
			failColor.Fprintf(w, "FAIL (want 0x%X)\n", r.Expected)
		}
	}
	fmt.Fprintf(w, "\n%d/%d passed\n", passed, len(results))
}

// printMetrics dumps the accelerator's Prometheus series from the default
// registry.
func printMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	fmt.Fprintln(w)
	titleColor.Fprintln(w, "=== DEVICE METRICS ===")

	var lines []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), metrics.Namespace+"_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			series := fmt.Sprintf("%s{%s}", mf.GetName(), strings.Join(labels, ","))

			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", series, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%g", series, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}

	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}

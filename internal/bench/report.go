package bench

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Best returns the result with the highest average similarity. Ties are
// broken by first occurrence. Returns nil for an empty slice.
func Best(results []Result) *Result {
	var best *Result
	for i := range results {
		if best == nil || results[i].AvgSimilarity > best.AvgSimilarity {
			best = &results[i]
		}
	}
	return best
}

// filterByMethod keeps results of one chunking method, in order.
func filterByMethod(results []Result, method string) []Result {
	var out []Result
	for _, r := range results {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func averages(results []Result) (avgChunks, avgSimilarity float64) {
	if len(results) == 0 {
		return 0, 0
	}
	for _, r := range results {
		avgChunks += float64(r.NumChunks)
		avgSimilarity += r.AvgSimilarity
	}
	n := float64(len(results))
	return avgChunks / n, avgSimilarity / n
}

// Report writes the summary table, per-method best configurations, and
// per-method averages to w.
func Report(w io.Writer, results []Result) {
	fmt.Fprintln(w, "Benchmark summary: sentence vs token vs sentence-window chunking")
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIGURATION\tCHUNKS\tQUERY TIME\tAVG SIMILARITY")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%.2fs\t%.4f\n",
			r.ConfigName, r.NumChunks, r.QueryTime.Seconds(), r.AvgSimilarity)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Best configurations")
	methods := []string{MethodSentence, MethodToken, MethodWindow}
	for _, method := range methods {
		subset := filterByMethod(results, method)
		if best := Best(subset); best != nil {
			fmt.Fprintf(w, "  %-16s %s (avg similarity %.4f, %d chunks, %.2fs)\n",
				method+":", best.ConfigName, best.AvgSimilarity, best.NumChunks, best.QueryTime.Seconds())
		}
	}
	if overall := Best(results); overall != nil {
		fmt.Fprintf(w, "  %-16s %s (avg similarity %.4f)\n",
			"overall:", overall.ConfigName, overall.AvgSimilarity)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Per-method averages")
	for _, method := range methods {
		subset := filterByMethod(results, method)
		if len(subset) == 0 {
			continue
		}
		avgChunks, avgSim := averages(subset)
		fmt.Fprintf(w, "  %-16s avg chunks %.1f, avg similarity %.4f\n",
			method+":", avgChunks, avgSim)
	}
}

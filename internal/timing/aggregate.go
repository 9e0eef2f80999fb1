package timing

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Summary aggregates the successful samples of one page.
type Summary struct {
	Page     string        `yaml:"page"`
	Count    int           `yaml:"count"`
	Failures int           `yaml:"failures"`
	Min      time.Duration `yaml:"min"`
	Mean     time.Duration `yaml:"mean"`
	Median   time.Duration `yaml:"median"`
	P95      time.Duration `yaml:"p95"`
	Max      time.Duration `yaml:"max"`
}

// Summarize groups samples by page, in order of first appearance.
func Summarize(samples []Sample) []Summary {
	var order []string
	byPage := make(map[string][]Sample)
	for _, s := range samples {
		if _, ok := byPage[s.Page]; !ok {
			order = append(order, s.Page)
		}
		byPage[s.Page] = append(byPage[s.Page], s)
	}

	summaries := make([]Summary, 0, len(order))
	for _, page := range order {
		summaries = append(summaries, summarizePage(page, byPage[page]))
	}
	return summaries
}

func summarizePage(page string, samples []Sample) Summary {
	sum := Summary{Page: page}

	var durations []time.Duration
	for _, s := range samples {
		if s.Error != "" {
			sum.Failures++
			continue
		}
		durations = append(durations, s.Duration())
	}
	sum.Count = len(durations)
	if sum.Count == 0 {
		return sum
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	sum.Min = durations[0]
	sum.Max = durations[len(durations)-1]
	sum.Mean = total / time.Duration(len(durations))
	sum.Median = percentile(durations, 50)
	sum.P95 = percentile(durations, 95)
	return sum
}

// percentile uses the nearest-rank method on sorted durations.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// PrintSummary writes a table of summaries to w.
func PrintSummary(w io.Writer, summaries []Summary) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, "\n"+strings.Repeat("=", 78))
	bold.Fprintln(w, "PAGE TIMINGS")
	bold.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "%-24s %5s %5s %9s %9s %9s %9s %9s\n", "Page", "OK", "Fail", "Min", "Mean", "Median", "P95", "Max")
	fmt.Fprintln(w, strings.Repeat("-", 78))

	for _, s := range summaries {
		fail := fmt.Sprintf("%5d", s.Failures)
		if s.Failures > 0 {
			fail = color.RedString("%5d", s.Failures)
		}
		fmt.Fprintf(w, "%-24s %5d %s %9s %9s %9s %9s %9s\n",
			truncate(s.Page, 24), s.Count, fail,
			round(s.Min), round(s.Mean), round(s.Median), round(s.P95), round(s.Max))
	}
	bold.Fprintln(w, strings.Repeat("=", 78))
}

func round(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

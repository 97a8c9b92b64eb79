// Package stats collects the engine's run-level counters, grounded on the
// teacher's LookaheadAnalyzer counters and SVF's AEStat summary table.
package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Stats accumulates the counters a run prints when PStat is enabled.
type Stats struct {
	Functions      int
	Blocks         int
	Callsites      int
	ExternalCalls  int
	IndirectCalls  int
	RecursiveCalls int
	WTOCycles      int
	WidenSteps     int
	NarrowSteps    int
	Assertions     int
	FailedAsserts  int

	start time.Time
}

// New returns a zeroed Stats with its wall-clock timer started.
func New() *Stats {
	return &Stats{start: time.Now()}
}

// Elapsed returns the wall-clock time since New was called.
func (s *Stats) Elapsed() time.Duration { return time.Since(s.start) }

// LogSummary writes a structured summary via logrus at Info level; always
// called regardless of PStat, since it is cheap and useful for debugging a
// run that later crashes.
func (s *Stats) LogSummary(log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"functions":       s.Functions,
		"blocks":          s.Blocks,
		"callsites":       s.Callsites,
		"external_calls":  s.ExternalCalls,
		"indirect_calls":  s.IndirectCalls,
		"recursive_calls": s.RecursiveCalls,
		"wto_cycles":      s.WTOCycles,
		"widen_steps":     s.WidenSteps,
		"narrow_steps":    s.NarrowSteps,
		"assertions":      s.Assertions,
		"failed_asserts":  s.FailedAsserts,
		"elapsed":         s.Elapsed().String(),
	}).Info("analysis finished")
}

// PrintTable renders a human-readable table to w, used when Config.PStat
// asks for the teacher-style plain-text report instead of (or in addition
// to) the logrus summary.
func (s *Stats) PrintTable(w io.Writer) {
	rows := [][2]string{
		{"Functions", fmt.Sprint(s.Functions)},
		{"Blocks", fmt.Sprint(s.Blocks)},
		{"Callsites", fmt.Sprint(s.Callsites)},
		{"ExternalCalls", fmt.Sprint(s.ExternalCalls)},
		{"IndirectCalls", fmt.Sprint(s.IndirectCalls)},
		{"RecursiveCalls", fmt.Sprint(s.RecursiveCalls)},
		{"WTOCycles", fmt.Sprint(s.WTOCycles)},
		{"WidenSteps", fmt.Sprint(s.WidenSteps)},
		{"NarrowSteps", fmt.Sprint(s.NarrowSteps)},
		{"Assertions", fmt.Sprint(s.Assertions)},
		{"FailedAsserts", fmt.Sprint(s.FailedAsserts)},
		{"Time", s.Elapsed().String()},
	}
	fmt.Fprintln(w, "################ (svfae) Statistics ################")
	for _, r := range rows {
		fmt.Fprintf(w, "%-20s %s\n", r[0], r[1])
	}
	fmt.Fprintln(w, "######################################################")
}

// Package tally aggregates inventory results across repeated rounds and
// writes them to a plain append-only text log.
package tally

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"utrinv/pkg/decoder"
)

// TagCount is the number of times one identifier was read.
type TagCount struct {
	ID       string
	Count    int
	LastRSSI decoder.DBm
}

// Accumulator is owned by the caller and threaded through each round.
// The zero value is ready to use.
type Accumulator struct {
	Iterations int
	ReadTime   time.Duration
	TotalReads int
	Mismatches int
	Nacks      int
	Timeouts   int
	Failures   int

	index map[string]int
	tags  []TagCount
}

// Add folds one decoded exchange into the totals.
func (a *Accumulator) Add(b decoder.Burst, timedOut bool) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	a.Iterations++
	a.TotalReads += len(b.Tags)
	a.Failures += len(b.Failures)
	if b.Mismatch() {
		a.Mismatches++
	}
	if b.Nack != nil {
		a.Nacks++
	}
	if timedOut {
		a.Timeouts++
	}
	for _, t := range b.Tags {
		id := t.ID()
		i, ok := a.index[id]
		if !ok {
			i = len(a.tags)
			a.index[id] = i
			a.tags = append(a.tags, TagCount{ID: id})
		}
		a.tags[i].Count++
		a.tags[i].LastRSSI = t.RSSI
	}
}

// AddTime adds wall time spent reading.
func (a *Accumulator) AddTime(d time.Duration) {
	a.ReadTime += d
}

// Tags returns per-identifier counts in first-seen order.
func (a *Accumulator) Tags() []TagCount {
	out := make([]TagCount, len(a.tags))
	copy(out, a.tags)
	return out
}

// Unique returns the number of distinct identifiers seen.
func (a *Accumulator) Unique() int { return len(a.tags) }

// Average returns tags read per iteration.
func (a *Accumulator) Average() float64 {
	if a.Iterations == 0 {
		return 0
	}
	return float64(a.TotalReads) / float64(a.Iterations)
}

// WriteReport writes one summary block stamped with at.
func (a *Accumulator) WriteReport(w io.Writer, at time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\n=== Inventory summary (%s) ===\n", at.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "Iterations: %d\n", a.Iterations)
	fmt.Fprintf(bw, "Total read time: %.2f s\n", a.ReadTime.Seconds())
	if a.Iterations > 0 {
		fmt.Fprintf(bw, "Average tags per iteration: %.2f\n", a.Average())
	}
	fmt.Fprintf(bw, "Total reads: %d (%d unique)\n", a.TotalReads, a.Unique())
	if a.Mismatches > 0 || a.Nacks > 0 || a.Timeouts > 0 || a.Failures > 0 {
		fmt.Fprintf(bw, "Anomalies: %d count mismatches, %d NACKs, %d timeouts, %d undecodable frames\n",
			a.Mismatches, a.Nacks, a.Timeouts, a.Failures)
	}
	fmt.Fprintln(bw, "Reads per PC+UII:")
	for _, t := range a.tags {
		fmt.Fprintf(bw, "%s: %d\n", t.ID, t.Count)
	}
	fmt.Fprint(bw, "=== end ===\n\n")
	return bw.Flush()
}

// AppendReport appends a summary block to the file at path, creating it
// if needed.
func AppendReport(path string, a *Accumulator, at time.Time) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results file: %w", err)
	}
	if err := a.WriteReport(f, at); err != nil {
		_ = f.Close()
		return fmt.Errorf("write results: %w", err)
	}
	return f.Close()
}

package tally

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"utrinv/pkg/decoder"
)

func tag(id byte, rssi decoder.DBm) decoder.TagRead {
	return decoder.TagRead{Identifier: []byte{0x30, 0x00, id}, RSSI: rssi}
}

func TestAccumulatorAdd(t *testing.T) {
	var a Accumulator
	a.Add(decoder.Burst{
		Tags:          []decoder.TagRead{tag(0x01, -50), tag(0x02, -60)},
		ExpectedCount: 2,
		HasExpected:   true,
	}, false)
	a.Add(decoder.Burst{
		Tags:          []decoder.TagRead{tag(0x02, -55)},
		ExpectedCount: 2,
		HasExpected:   true,
		Failures:      []error{errors.New("overrun")},
	}, false)
	a.Add(decoder.Burst{}, true)

	if a.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", a.Iterations)
	}
	if a.TotalReads != 3 {
		t.Errorf("TotalReads = %d, want 3", a.TotalReads)
	}
	if a.Mismatches != 1 {
		t.Errorf("Mismatches = %d, want 1", a.Mismatches)
	}
	if a.Timeouts != 1 {
		t.Errorf("Timeouts = %d, want 1", a.Timeouts)
	}
	if a.Failures != 1 {
		t.Errorf("Failures = %d, want 1", a.Failures)
	}
	if a.Average() != 1.0 {
		t.Errorf("Average() = %v, want 1.0", a.Average())
	}

	tags := a.Tags()
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	if tags[0].ID != "300001" || tags[0].Count != 1 {
		t.Errorf("tags[0] = %+v, want 300001 x1", tags[0])
	}
	if tags[1].ID != "300002" || tags[1].Count != 2 || tags[1].LastRSSI != -55 {
		t.Errorf("tags[1] = %+v, want 300002 x2 at -55", tags[1])
	}
}

func TestAccumulatorNack(t *testing.T) {
	var a Accumulator
	d := decoder.TranslateNack(0x04)
	a.Add(decoder.Burst{Nack: &d}, false)
	if a.Nacks != 1 {
		t.Errorf("Nacks = %d, want 1", a.Nacks)
	}
	if a.Unique() != 0 {
		t.Errorf("Unique() = %d, want 0", a.Unique())
	}
}

func TestWriteReport(t *testing.T) {
	var a Accumulator
	a.Add(decoder.Burst{Tags: []decoder.TagRead{tag(0xAB, -40)}}, false)
	a.Add(decoder.Burst{Tags: []decoder.TagRead{tag(0xAB, -41)}}, false)
	a.AddTime(1500 * time.Millisecond)

	var buf bytes.Buffer
	at := time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC)
	if err := a.WriteReport(&buf, at); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	got := buf.String()
	for _, want := range []string{
		"=== Inventory summary (2025-01-15 10:30:45) ===",
		"Iterations: 2\n",
		"Total read time: 1.50 s\n",
		"Average tags per iteration: 1.00\n",
		"Total reads: 2 (1 unique)\n",
		"3000AB: 2\n",
		"=== end ===",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Anomalies") {
		t.Errorf("report lists anomalies for a clean run:\n%s", got)
	}
}

func TestAppendReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory_results.txt")
	var a Accumulator
	a.Add(decoder.Burst{Tags: []decoder.TagRead{tag(0x01, -40)}}, false)

	at := time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC)
	if err := AppendReport(path, &a, at); err != nil {
		t.Fatalf("AppendReport 1: %v", err)
	}
	if err := AppendReport(path, &a, at.Add(time.Minute)); err != nil {
		t.Fatalf("AppendReport 2: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if n := strings.Count(string(data), "=== Inventory summary"); n != 2 {
		t.Errorf("file has %d summaries, want 2", n)
	}
	if !strings.Contains(string(data), "10:31:45") {
		t.Error("second summary missing")
	}
}

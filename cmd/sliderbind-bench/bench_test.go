package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
)

func TestParseConfig(t *testing.T) {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := parseConfig(fs, []string{"-profile", "fast", "-clients", "3", "-duration", "2s", "-mode", "debounce", "-mem-limit", "1GiB"})
	if err != nil {
		t.Fatal(err)
	}
	want := benchConfig{
		Profile:       "fast",
		Clients:       3,
		Duration:      2 * time.Second,
		RPS:           2,
		Sliders:       4,
		Mode:          modeDebounce,
		MemLimitBytes: gib,
		JSONOutput:    "-",
		EventTimeout:  5 * time.Second,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}

	for _, args := range [][]string{
		{"-profile", "huge"},
		{"-clients", "0"},
		{"-mode", "sideways"},
		{"-sliders", "0"},
		{"-duration", "soon"},
	} {
		fs := flag.NewFlagSet("bench", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		if _, err := parseConfig(fs, args); err == nil {
			t.Errorf("parseConfig(%v) should fail", args)
		}
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"512", 512, true},
		{"2kb", 2000, true},
		{"1.5MiB", 1572864, true},
		{"2GiB", 2 * gib, true},
		{"", 0, false},
		{"GiB", 0, false},
		{"3 parsecs", 0, false},
	}
	for _, tt := range tests {
		got, err := parseBytes(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseBytes(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestPercentile(t *testing.T) {
	var sorted []time.Duration
	for i := 1; i <= 100; i++ {
		sorted = append(sorted, time.Duration(i)*time.Millisecond)
	}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, time.Millisecond},
		{0.5, 50 * time.Millisecond},
		{0.95, 95 * time.Millisecond},
		{1, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if percentile(nil, 0.5) != 0 {
		t.Error("percentile of no samples should be 0")
	}
}

func TestDragValue(t *testing.T) {
	for client := 0; client < 5; client++ {
		prev := 0
		for seq := 1; seq < 3*sliderMax; seq++ {
			v := dragValue(client, seq)
			if v <= 0 || v > sliderMax {
				t.Fatalf("dragValue(%d, %d) = %d out of range", client, seq, v)
			}
			if v == prev {
				t.Fatalf("dragValue(%d, %d) repeats %d", client, seq, v)
			}
			prev = v
		}
	}
}

func TestRunBench(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a server")
	}
	cfg := benchConfig{
		Profile:      "test",
		Clients:      3,
		Duration:     time.Second,
		RPS:          10,
		Sliders:      2,
		Mode:         modeAnimate,
		JSONOutput:   filepath.Join(t.TempDir(), "report.json"),
		EventTimeout: eventTimeout(10),
	}
	report, err := runBench(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if report.Errors.TotalErrors != 0 {
		t.Errorf("errors: %+v", report.Errors)
	}
	if report.Throughput.DragsTotal == 0 {
		t.Fatal("no drags relayed")
	}
	if report.Server.ValuesRelayed < float64(report.Throughput.DragsTotal) {
		t.Errorf("server relayed %.0f values for %d drags", report.Server.ValuesRelayed, report.Throughput.DragsTotal)
	}
	if report.LatencyMS.P50 <= 0 || report.LatencyMS.P50 > report.LatencyMS.Max {
		t.Errorf("latency %+v", report.LatencyMS)
	}

	var summary bytes.Buffer
	writeSummary(&summary, report)
	if !strings.Contains(summary.String(), "Mode: animate") {
		t.Errorf("summary:\n%s", summary.String())
	}

	if err := writeJSON(cfg.JSONOutput, report); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(cfg.JSONOutput)
	if err != nil {
		t.Fatal(err)
	}
	var decoded benchReport
	if err := jsoniter.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report JSON: %v", err)
	}
	if decoded.Throughput.DragsTotal != report.Throughput.DragsTotal {
		t.Errorf("decoded drags %d, want %d", decoded.Throughput.DragsTotal, report.Throughput.DragsTotal)
	}
}

func TestGatherServerCountersEmpty(t *testing.T) {
	got, err := gatherServerCounters(prometheus.NewRegistry())
	if err != nil || got != (serverCounters{}) {
		t.Errorf("gatherServerCounters = %+v, %v", got, err)
	}
}

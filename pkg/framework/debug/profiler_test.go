package debug

import (
	"strings"
	"testing"
	"time"
)

func TestTrackRecord(t *testing.T) {
	p := NewProfiler()
	track := p.Track("instance 1")
	if p.Track("instance 1") != track {
		t.Fatal("Track should return the existing track")
	}

	p.SetBudget(10 * time.Millisecond)
	track.Record(4 * time.Millisecond)
	track.Record(8 * time.Millisecond)
	track.Record(12 * time.Millisecond)

	s := track.Stats()
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.Average != 8*time.Millisecond {
		t.Errorf("Average = %v, want 8ms", s.Average)
	}
	if s.Max != 12*time.Millisecond || s.Last != 12*time.Millisecond {
		t.Errorf("Max/Last = %v/%v", s.Max, s.Last)
	}
	if s.Overruns != 1 {
		t.Errorf("Overruns = %d, want 1", s.Overruns)
	}
	if load := s.Load(); load < 0.79 || load > 0.81 {
		t.Errorf("Load = %v, want 0.8", load)
	}

	p.Reset()
	if s := track.Stats(); s.Count != 0 || s.Budget != 10*time.Millisecond {
		t.Errorf("after Reset: %+v", s)
	}
}

func TestProfilerReport(t *testing.T) {
	p := NewProfiler()
	if p.Report() != "No measurements recorded" {
		t.Error("empty profiler report")
	}

	p.Track("fast").Record(time.Microsecond)
	p.Track("slow").Record(time.Millisecond)

	report := p.Report()
	if strings.Index(report, "slow") > strings.Index(report, "fast") {
		t.Errorf("slowest track should come first:\n%s", report)
	}

	snap := p.Snapshot()
	if len(snap) != 2 || snap[0].Name != "fast" {
		t.Errorf("Snapshot order = %+v", snap)
	}
}

func TestBlockBudget(t *testing.T) {
	if got := BlockBudget(48000, 480); got != 10*time.Millisecond {
		t.Errorf("BlockBudget = %v, want 10ms", got)
	}
	if BlockBudget(0, 512) != 0 {
		t.Error("zero sample rate should give zero budget")
	}
}

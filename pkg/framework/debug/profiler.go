package debug

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler keeps named timing tracks. Tracks are created on the control
// thread and recorded into from the audio thread without locking.
type Profiler struct {
	mu     sync.RWMutex
	tracks map[string]*Track
	order  []string
}

// Track accumulates durations for one named section.
type Track struct {
	name      string
	count     atomic.Uint64
	total     atomic.Int64
	max       atomic.Int64
	last      atomic.Int64
	overruns  atomic.Uint64
	budget    atomic.Int64
	lastStart time.Time
}

// Stats is a point-in-time copy of a Track.
type Stats struct {
	Name     string
	Count    uint64
	Total    time.Duration
	Average  time.Duration
	Max      time.Duration
	Last     time.Duration
	Overruns uint64
	Budget   time.Duration
}

// Load is the average time as a fraction of the budget, 0 if no budget.
func (s Stats) Load() float64 {
	if s.Budget <= 0 {
		return 0
	}
	return float64(s.Average) / float64(s.Budget)
}

// NewProfiler creates an empty profiler.
func NewProfiler() *Profiler {
	return &Profiler{tracks: make(map[string]*Track)}
}

// Track returns the named track, creating it if needed.
func (p *Profiler) Track(name string) *Track {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.tracks[name]; ok {
		return t
	}
	t := &Track{name: name}
	p.tracks[name] = t
	p.order = append(p.order, name)
	return t
}

// SetBudget sets the real-time budget on every track. A recording longer
// than the budget counts as an overrun.
func (p *Profiler) SetBudget(budget time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, t := range p.tracks {
		t.budget.Store(int64(budget))
	}
}

// Begin marks the start of a section. Pair with End on the same goroutine.
func (t *Track) Begin() {
	t.lastStart = time.Now()
}

// End records the time since Begin.
func (t *Track) End() {
	t.Record(time.Since(t.lastStart))
}

// Record adds one measurement.
func (t *Track) Record(elapsed time.Duration) {
	d := int64(elapsed)
	t.count.Add(1)
	t.total.Add(d)
	t.last.Store(d)
	for {
		m := t.max.Load()
		if d <= m || t.max.CompareAndSwap(m, d) {
			break
		}
	}
	if b := t.budget.Load(); b > 0 && d > b {
		t.overruns.Add(1)
	}
}

// Stats copies the current values.
func (t *Track) Stats() Stats {
	s := Stats{
		Name:     t.name,
		Count:    t.count.Load(),
		Total:    time.Duration(t.total.Load()),
		Max:      time.Duration(t.max.Load()),
		Last:     time.Duration(t.last.Load()),
		Overruns: t.overruns.Load(),
		Budget:   time.Duration(t.budget.Load()),
	}
	if s.Count > 0 {
		s.Average = s.Total / time.Duration(s.Count)
	}
	return s
}

// Reset zeroes the counters but keeps the budget.
func (t *Track) Reset() {
	t.count.Store(0)
	t.total.Store(0)
	t.max.Store(0)
	t.last.Store(0)
	t.overruns.Store(0)
}

// Snapshot returns the stats of every track in creation order.
func (p *Profiler) Snapshot() []Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Stats, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.tracks[name].Stats())
	}
	return out
}

// Reset zeroes every track.
func (p *Profiler) Reset() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, t := range p.tracks {
		t.Reset()
	}
}

// Report renders the snapshot as a table, slowest track first.
func (p *Profiler) Report() string {
	stats := p.Snapshot()
	if len(stats) == 0 {
		return "No measurements recorded"
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Average > stats[j].Average })

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-16s %8s %12s %12s %8s %9s\n", "track", "count", "avg", "max", "load", "overruns")
	for _, s := range stats {
		fmt.Fprintf(&sb, "%-16s %8d %12v %12v %7.1f%% %9d\n",
			s.Name, s.Count, s.Average, s.Max, s.Load()*100, s.Overruns)
	}
	return sb.String()
}

// BlockBudget is the wall time available to render one block.
func BlockBudget(sampleRate float64, blockSize int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(blockSize) / sampleRate * float64(time.Second))
}

package unison

import (
	"errors"
	"testing"

	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/framework/plugin"
	"github.com/justyntemme/unison/pkg/framework/process"
)

const (
	fakeLevel uint32 = iota
	fakeTune
	fakeCoarse
	fakeCutoff
	fakeProgram
)

var fakePrograms = []plugin.Program{
	{Name: "Init"},
	{Name: "Dark", Values: map[uint32]float64{fakeCutoff: 0.1}},
	{Name: "Bright", Values: map[uint32]float64{fakeCutoff: 0.9}},
	{Name: "Low", Values: map[uint32]float64{fakeCutoff: 0.3, fakeCoarse: -12}},
	{Name: "Quiet", Values: map[uint32]float64{fakeLevel: 0.25}},
}

// fakeEngine writes a constant 1 to every output sample.
type fakeEngine struct {
	*plugin.BaseEngine
	panics bool
}

func (e *fakeEngine) Process(ctx *process.Context) {
	if e.panics {
		panic("render failed")
	}
	for _, ch := range ctx.Output {
		for i := range ch {
			ch[i] = 1
		}
	}
}

var _ plugin.Engine = (*fakeEngine)(nil)

// fakeOpts alters the engines by creation order.
type fakeOpts struct {
	fail       map[int]bool
	panics     map[int]bool
	noCutoff   map[int]bool
	noPrograms bool
}

func fakeDescription(o fakeOpts) plugin.Description {
	created := 0
	info := plugin.Info{ID: "com.example.fake", Name: "Fake"}
	return plugin.Description{
		Info: info,
		New: func() (plugin.Engine, error) {
			i := created
			created++
			if o.fail[i] {
				return nil, errors.New("out of licenses")
			}
			b := plugin.NewBaseEngine(info, nil)
			b.Parameters().Add(
				param.New(fakeLevel, "Level").Default(1).Build(),
				param.New(fakeTune, "Tune").Default(Nominal).Build(),
				param.New(fakeCoarse, "Coarse").Range(-24, 24).Steps(48).Default(0).Build(),
			)
			if !o.noCutoff[i] {
				b.Parameters().Add(param.New(fakeCutoff, "Cutoff").Default(0.5).Build())
			}
			if !o.noPrograms {
				b.SetPrograms(fakeProgram, fakePrograms)
			}
			return &fakeEngine{BaseEngine: b, panics: o.panics[i]}, nil
		},
	}
}

func fakeConfig(n int) Config {
	cfg := DefaultConfig()
	cfg.NumInstances = n
	cfg.MuteParam = fakeLevel
	cfg.TuneParam = fakeTune
	return cfg
}

func newFakeProcessor(t testing.TB, cfg Config, o fakeOpts) *Processor {
	t.Helper()
	p, err := NewProcessor(fakeDescription(o), cfg, WithLogger(debug.Discard()))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return p
}

func configured(t testing.TB, cfg Config, o fakeOpts) *Processor {
	t.Helper()
	p := newFakeProcessor(t, cfg, o)
	if err := p.Configure(48000, 64); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return p
}

func stereo(n int) [][]float32 {
	return [][]float32{make([]float32, n), make([]float32, n)}
}

func fill(out [][]float32, v float32) {
	for _, ch := range out {
		for i := range ch {
			ch[i] = v
		}
	}
}

func near(a, b, eps float64) bool {
	d := a - b
	return d < eps && d > -eps
}

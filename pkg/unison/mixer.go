package unison

import (
	"github.com/justyntemme/unison/pkg/dsp/mix"
	"github.com/justyntemme/unison/pkg/dsp/pan"
	"github.com/justyntemme/unison/pkg/framework/param"
)

// Gain is the normalization applied at a given pan spread. A voice in the
// centre has channel weight 1 - p/2, so G(p) = 2/(2-p) keeps it at unity:
// G(0) = 1 and G(1) = 2.
func Gain(panSpread float64) float64 {
	return 2 / (2 - clampUnit(panSpread))
}

// Weights returns the left and right weight of a voice at position pos
// (0 left, 1 right): a linear blend from 1 (no panning) to the linear pan
// law (1-pos, pos) as panSpread goes from 0 to 1.
func Weights(pos, panSpread float64) (left, right float32) {
	fullL, fullR := pan.MonoToStereo(pan.FromPosition(pos), pan.Linear)
	s := float32(clampUnit(panSpread))
	return mix.CrossfadeLinear(1, fullL, s), mix.CrossfadeLinear(1, fullR, s)
}

// Mixer sums the instance buffers of a pool into the processor output.
type Mixer struct {
	pool        *Pool
	policy      MutePolicy
	mutes       []*param.Parameter // per instance, nil when absent
	pans        []float64
	panSpread   *param.Parameter
	masterInMix bool
}

// NewMixer creates a mixer over pool. panSpread is the macro parameter
// read at every block; nil means full spread.
func NewMixer(pool *Pool, cfg Config, panSpread *param.Parameter) *Mixer {
	n := pool.Size()
	m := &Mixer{
		pool:        pool,
		policy:      cfg.Mute,
		mutes:       make([]*param.Parameter, n),
		pans:        make([]float64, n),
		panSpread:   panSpread,
		masterInMix: cfg.MasterInMix,
	}
	for i := 0; i < n; i++ {
		m.mutes[i] = pool.Instance(i).Param(cfg.MuteParam)
		m.pans[i] = PanPosition(i, n)
	}
	return m
}

// PanSpread returns the current macro value.
func (m *Mixer) PanSpread() float64 {
	if m.panSpread == nil {
		return 1
	}
	return m.panSpread.GetPlainValue()
}

// Included reports whether instance i contributes to the mix.
func (m *Mixer) Included(i int) bool {
	if i < 0 || i >= len(m.mutes) {
		return false
	}
	return m.included(i)
}

func (m *Mixer) included(i int) bool {
	if i == 0 && !m.masterInMix {
		return false
	}
	if m.policy.Muted(i) {
		return false
	}
	mute := m.mutes[i]
	return mute != nil && mute.GetValue() > 0
}

// Unmuted counts the instances that contribute to the mix.
func (m *Mixer) Unmuted() int {
	n := 0
	for i := range m.mutes {
		if m.included(i) {
			n++
		}
	}
	return n
}

// Mix writes the normalized sum of the instance buffers into out. With no
// contributing instance out is all zeros. Values are not clipped.
func (m *Mixer) Mix(out [][]float32) {
	m.MixWith(out, m.PanSpread())
}

// MixWith mixes at an explicit pan spread.
func (m *Mixer) MixWith(out [][]float32, panSpread float64) {
	for _, ch := range out {
		mix.Clear(ch)
	}
	unmuted := m.Unmuted()
	if unmuted == 0 {
		return
	}

	avg := float32(1 / float64(unmuted))
	norm := float32(Gain(panSpread)) * avg
	stereo := len(out) >= 2

	for i, in := range m.pool.instances {
		if !m.included(i) {
			continue
		}
		pos := m.pans[i]
		if i == 0 {
			pos = 0.5
		}
		wl, wr := Weights(pos, panSpread)

		for c, dst := range out {
			if c >= len(in.view) {
				break
			}
			w := float32(1)
			switch {
			case stereo && c == 0:
				w = wl
			case stereo && c == 1:
				w = wr
			}
			mix.AddScaled(dst, in.view[c], w)
		}
	}

	// normalize once per channel
	for c, dst := range out {
		if stereo && c < 2 {
			mix.Scale(dst, norm)
		} else {
			mix.Scale(dst, avg)
		}
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

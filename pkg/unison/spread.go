package unison

import (
	"math/bits"
)

// Nominal is the tune parameter value of the reference pitch.
const Nominal = 0.5

// TuneOffset returns the normalized tune value of instance i in a pool of
// n for the given detune spread. Instance 0 is the reference and always
// sits at Nominal. The others are spaced d/n apart and centred on Nominal.
func TuneOffset(i, n int, detune float64) float64 {
	if i <= 0 || n <= 0 {
		return Nominal
	}
	return Nominal - detune/2 + float64(i)*detune/float64(n)
}

// PanPosition returns the stereo position (0 left, 1 right) of instance i.
// Instances 1..n-1 run linearly from hard left to hard right. Instance 0
// sits in the centre.
func PanPosition(i, n int) float64 {
	if i <= 0 || n <= 1 {
		return 0.5
	}
	return float64(i-1) / float64(n-1)
}

// Placement is where one instance sits in the spread.
type Placement struct {
	Index int
	Tune  float64
	Pan   float64
}

// Spread computes the placement of every instance.
func Spread(detune float64, n int) []Placement {
	out := make([]Placement, n)
	for i := range out {
		out[i] = Placement{Index: i, Tune: TuneOffset(i, n, detune), Pan: PanPosition(i, n)}
	}
	return out
}

// MaxInstances is the largest pool a MutePolicy can describe.
const MaxInstances = 64

// MutePolicy is a fixed set of instance indices forced to zero output gain.
// The zero value mutes nothing.
type MutePolicy uint64

// NewMutePolicy builds a policy from indices. Out of range indices are ignored.
func NewMutePolicy(indices ...int) MutePolicy {
	var m MutePolicy
	for _, i := range indices {
		if i >= 0 && i < MaxInstances {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Muted reports whether instance i is forced silent.
func (m MutePolicy) Muted(i int) bool {
	return i >= 0 && i < MaxInstances && m&(1<<uint(i)) != 0
}

// Indices lists the muted instances in ascending order.
func (m MutePolicy) Indices() []int {
	out := make([]int, 0, bits.OnesCount64(uint64(m)))
	for v := uint64(m); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v))
	}
	return out
}

// Len returns the number of muted instances.
func (m MutePolicy) Len() int {
	return bits.OnesCount64(uint64(m))
}

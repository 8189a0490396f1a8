package debug

import (
	"fmt"
	"math"

	"github.com/justyntemme/unison/pkg/dsp/gain"
)

// AnalysisResult summarizes one audio buffer.
type AnalysisResult struct {
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	NaNCount       int
	InfCount       int
}

// Silent reports whether the RMS is below -80 dBFS.
func (r AnalysisResult) Silent() bool {
	return r.RMS < 1e-4
}

// PeakDB returns the peak in dBFS, gain.MinDB for digital silence.
func (r AnalysisResult) PeakDB() float64 {
	return gain.LinearToDb(float64(r.Peak))
}

// AnalyzeBuffer measures peak, RMS and DC and counts bad samples.
// Non-finite samples are excluded from the level figures.
func AnalyzeBuffer(buffer []float32) AnalysisResult {
	var r AnalysisResult
	var sum, sumSquares float64
	n := 0

	for _, s := range buffer {
		f := float64(s)
		switch {
		case math.IsNaN(f):
			r.NaNCount++
			continue
		case math.IsInf(f, 0):
			r.InfCount++
			continue
		}
		a := float32(math.Abs(f))
		if a > r.Peak {
			r.Peak = a
		}
		if a >= 1 {
			r.ClippedSamples++
		}
		sum += f
		sumSquares += f * f
		n++
	}

	if n > 0 {
		r.RMS = float32(math.Sqrt(sumSquares / float64(n)))
		r.DC = float32(sum / float64(n))
	}
	return r
}

// CheckBuffer lists problems with a buffer, empty when it looks sane.
func CheckBuffer(buffer []float32, name string) []string {
	var issues []string
	r := AnalyzeBuffer(buffer)

	if r.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d NaN values", name, r.NaNCount))
	}
	if r.InfCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d infinite values", name, r.InfCount))
	}
	if r.ClippedSamples > 0 {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples, peak %+.1f dBFS)", name, r.ClippedSamples, r.PeakDB()))
	}
	if math.Abs(float64(r.DC)) > 0.01 {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, r.DC))
	}
	return issues
}

package debug

import (
	"math"
	"testing"

	"github.com/justyntemme/unison/pkg/dsp/gain"
)

func TestAnalyzeBuffer(t *testing.T) {
	buf := []float32{0.5, -0.5, 0.5, -0.5}
	r := AnalyzeBuffer(buf)

	if r.Peak != 0.5 || r.RMS != 0.5 || r.DC != 0 {
		t.Errorf("unexpected result %+v", r)
	}
	if r.Silent() {
		t.Error("buffer is not silent")
	}
	if math.Abs(r.PeakDB()+6.0206) > 1e-3 {
		t.Errorf("PeakDB = %v", r.PeakDB())
	}

	zeros := AnalyzeBuffer(make([]float32, 64))
	if !zeros.Silent() {
		t.Error("zeros should be silent")
	}
	if zeros.PeakDB() != gain.MinDB {
		t.Errorf("PeakDB of zeros = %v, want %v", zeros.PeakDB(), gain.MinDB)
	}
}

func TestCheckBuffer(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name   string
		buf    []float32
		issues int
	}{
		{"clean", []float32{0.1, -0.1}, 0},
		{"nan", []float32{nan, 0.1, -0.1}, 1},
		{"clip", []float32{1.5, -1.5}, 1},
		{"dc", []float32{0.2, 0.2}, 1},
	}

	for _, tt := range tests {
		if got := CheckBuffer(tt.buf, tt.name); len(got) != tt.issues {
			t.Errorf("%s: issues %v, want %d", tt.name, got, tt.issues)
		}
	}
}

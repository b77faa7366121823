// Package voice_activity_detection scores audio frames by spectral flux so a
// listener can tell when speech starts and stops.
package voice_activity_detection

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Detector keeps the magnitude spectrum of the previous frame.
type Detector struct {
	frameSize int
	previous  []float64
	scratch   []float64
}

func New(frameSize int) *Detector {
	return &Detector{
		frameSize: frameSize,
		previous:  make([]float64, frameSize/2+1),
		scratch:   make([]float64, frameSize),
	}
}

// Flux returns the sum of positive bin-wise magnitude increases between the
// previous frame and this one. Frames shorter than the configured size are
// zero padded, longer ones truncated.
func (d *Detector) Flux(samples []int16) float64 {
	for i := range d.scratch {
		if i < len(samples) {
			d.scratch[i] = float64(samples[i]) / 32768
		} else {
			d.scratch[i] = 0
		}
	}

	window.Apply(d.scratch, window.Hamming)

	spectrum := fft.FFTReal(d.scratch)

	var flux float64

	for i := range d.previous {
		magnitude := cmplx.Abs(spectrum[i])

		if diff := magnitude - d.previous[i]; diff > 0 {
			flux += diff
		}

		d.previous[i] = magnitude
	}

	return flux
}

// Reset forgets the previous frame.
func (d *Detector) Reset() {
	for i := range d.previous {
		d.previous[i] = 0
	}
}

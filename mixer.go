// mixer.go - Voice summing, pan law and global volume

package replay

import "math"

// PanLaw selects how per-voice pan positions map to left/right gains
type PanLaw int

const (
	PanLinear PanLaw = iota
	PanConstantPower
)

type mixer struct {
	panLaw       PanLaw
	globalVolume float32
}

func newMixer(panLaw PanLaw, globalVolume float64) *mixer {
	return &mixer{panLaw: panLaw, globalVolume: float32(globalVolume)}
}

// panGains maps a 0-128 pan position (64 = center) to left/right gains
func (m *mixer) panGains(pan int) (l, r float32) {
	p := float64(pan) / 128
	switch m.panLaw {
	case PanConstantPower:
		return float32(math.Sqrt(1 - p)), float32(math.Sqrt(p))
	default:
		return float32(1 - p), float32(p)
	}
}

// mixFrame pulls one sample from every voice and sums the stereo frame.
// Per-voice volume (envelope x note volume x channel volume) is already
// folded into voice.sample(); only pan and the global scalar apply here.
func (m *mixer) mixFrame(voices []*voice) (l, r float32) {
	for _, v := range voices {
		s := v.sample()
		if s == 0 {
			continue
		}
		gl, gr := m.panGains(v.pan)
		l += s * gl
		r += s * gr
	}
	l = clampSample(l * m.globalVolume)
	r = clampSample(r * m.globalVolume)
	return l, r
}

func clampSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

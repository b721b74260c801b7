package audio

import "math"

// RMS thresholds for the piecewise-linear volume map. Soft speech sits in
// 0.005-0.02, normal in 0.02-0.06, loud above 0.06.
const (
	rmsSilence = 0.005
	rmsSoft    = 0.02
	rmsNormal  = 0.06
	rmsLoud    = 0.10

	// Windows below this RMS are dropped before any recognition work.
	silenceFloor = 0.01
)

// RMS computes the root-mean-square energy of the samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Volume maps RMS energy to a normalized loudness level in [0, 1].
// The map is monotonic, saturates at 1.0 for RMS >= 0.10, and is exactly 0
// below the silence threshold.
func Volume(samples []float32) float64 {
	rms := RMS(samples)

	var volume float64
	switch {
	case rms < rmsSilence:
		volume = 0.0
	case rms < rmsSoft:
		volume = (rms - rmsSilence) / (rmsSoft - rmsSilence) * 0.33
	case rms < rmsNormal:
		volume = 0.33 + (rms-rmsSoft)/(rmsNormal-rmsSoft)*0.33
	case rms < rmsLoud:
		volume = 0.66 + (rms-rmsNormal)/(rmsLoud-rmsNormal)*0.34
	default:
		volume = 1.0
	}
	return math.Min(1.0, math.Max(0.0, volume))
}

// IsSilent reports whether the window is too quiet to be worth recognizing.
func IsSilent(samples []float32) bool {
	return RMS(samples) < silenceFloor
}

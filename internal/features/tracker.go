// Package features derives market signals from odds movement and fills
// missing liquidity metadata for the pipeline.
package features

import "math"

// Direction of the latest odds movement
type Direction string

const (
	DirectionNeutral    Direction = "neutral"
	DirectionStrongDown Direction = "strong_down"
	DirectionStrongUp   Direction = "strong_up"
	DirectionMixed      Direction = "mixed"
)

const (
	sharpSpeedThreshold  = 0.015
	sharpVolumeThreshold = 0.020
	sharpMaxVariance     = 0.003
	publicNoiseLimit     = 0.010
	publicNoiseScale     = 0.05
	manipulationMove     = 0.02
)

// Signals summarises an odds history
type Signals struct {
	Direction     Direction `json:"direction"`
	SharpStrength float64   `json:"sharp_strength"`
	PublicNoise   float64   `json:"public_noise"`
	Manipulated   bool      `json:"manipulated"`
	Momentum      float64   `json:"momentum"`
	Drift         float64   `json:"drift"`
}

// Analyze computes market signals from a chronological odds history
func Analyze(history []float64) Signals {
	return Signals{
		Direction:     detectDirection(history),
		SharpStrength: sharpStrength(history),
		PublicNoise:   publicNoise(history),
		Manipulated:   isManipulated(history),
		Momentum:      momentum(history),
		Drift:         drift(history),
	}
}

func detectDirection(h []float64) Direction {
	n := len(h)
	if n < 3 {
		return DirectionNeutral
	}
	a, b, c := h[n-3], h[n-2], h[n-1]
	switch {
	case c < b && b < a:
		return DirectionStrongDown
	case c > b && b > a:
		return DirectionStrongUp
	default:
		return DirectionMixed
	}
}

// sharpStrength scores a fast, large and orderly move in [0,1]
func sharpStrength(h []float64) float64 {
	n := len(h)
	if n < 3 {
		return 0
	}
	hits := 0
	if math.Abs(h[n-1]-h[n-2]) > sharpSpeedThreshold {
		hits++
	}
	if math.Abs(h[n-1]-h[0]) > sharpVolumeThreshold {
		hits++
	}
	if populationVariance(h) < sharpMaxVariance {
		hits++
	}
	return float64(hits) / 3
}

func publicNoise(h []float64) float64 {
	if len(h) < 3 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(h); i++ {
		sum += math.Abs(h[i] - h[i-1])
	}
	mean := sum / float64(len(h)-1)
	if mean < publicNoiseLimit {
		return 0
	}
	return math.Min(1, mean/publicNoiseScale)
}

// isManipulated flags a down-up-down whipsaw at the start of the history
func isManipulated(h []float64) bool {
	if len(h) < 4 {
		return false
	}
	return h[1]-h[0] < -manipulationMove &&
		h[2]-h[1] > manipulationMove &&
		h[3]-h[2] < -manipulationMove
}

// momentum is the mean of the last two differences
func momentum(h []float64) float64 {
	n := len(h)
	if n <= 3 {
		return 0
	}
	return ((h[n-2] - h[n-3]) + (h[n-1] - h[n-2])) / 2
}

// drift is the fractional shortening of the price, positive when odds fall
func drift(h []float64) float64 {
	if len(h) < 2 || h[0] <= 0 {
		return 0
	}
	return (h[0] - h[len(h)-1]) / h[0]
}

func populationVariance(h []float64) float64 {
	mean := 0.0
	for _, v := range h {
		mean += v
	}
	mean /= float64(len(h))
	variance := 0.0
	for _, v := range h {
		variance += (v - mean) * (v - mean)
	}
	return variance / float64(len(h))
}

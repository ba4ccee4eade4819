package weather

import "math"

// Magnus coefficients over water.
const (
	magnusA = 17.27
	magnusB = 237.7
)

// DewPoint approximates the dew point in °C from air temperature (°C) and
// relative humidity (%). Non-finite results, e.g. for zero humidity, come
// back as NaN.
func DewPoint(temp, rh float64) float64 {
	alpha := magnusA*temp/(magnusB+temp) + math.Log(rh/100)
	td := magnusB * alpha / (magnusA - alpha)
	if math.IsInf(td, 0) {
		return math.NaN()
	}
	return td
}

// Interpolate fills missing values linearly between the surrounding valid
// values by position. Leading and trailing gaps take the nearest valid
// value. A series with no valid value is returned unchanged.
func Interpolate(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)

	prev := -1
	for i, v := range out {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case prev == -1:
			for j := 0; j < i; j++ {
				out[j] = v
			}
		case i-prev > 1:
			step := (v - out[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				out[j] = out[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
	if prev == -1 {
		return out
	}
	for j := prev + 1; j < len(out); j++ {
		out[j] = out[prev]
	}
	return out
}
